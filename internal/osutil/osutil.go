// Package osutil holds platform constants and helpers
package osutil

import (
	"os"
	"runtime"
)

const (
	Windows = "windows"
	Darwin  = "darwin"
)

const (
	DirPermission  = 0o750
	FilePermission = 0o600
)

// Editor returns the user's preferred text editor, falling back to a
// platform default.
func Editor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}

	if runtime.GOOS == Windows {
		return `C:\Windows\system32\notepad.exe`
	}

	return "nano"
}
