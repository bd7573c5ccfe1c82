// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

const envVar = "SOLVELOG_ENV"

// Paths holds all application path configurations.
type Paths struct {
	appDir         string
	configFileName string
	dbFileName     string
	legacyFileName string
	logFileName    string

	// absolute paths
	configFilePath string
	dbFilePath     string
	legacyFilePath string
	logFilePath    string
}

var (
	paths *Paths
	once  sync.Once
)

// Initialize resolves every path. Later calls return the first result.
func Initialize() error {
	var initErr error

	once.Do(func() {
		p := newPaths(os.Getenv(envVar))

		initErr = p.computePaths()
		if initErr == nil {
			paths = p
		}
	})

	return initErr
}

func newPaths(env string) *Paths {
	p := &Paths{
		appDir:         "solvelog",
		configFileName: "config.yml",
		dbFileName:     "solvelog.db",
		legacyFileName: "sessions.json",
		logFileName:    "solvelog.log",
	}

	// separate environments (e.g. "dev") get their own files side by side
	if env = strings.TrimSpace(env); env != "" {
		p.configFileName = fmt.Sprintf("config_%s.yml", env)
		p.dbFileName = fmt.Sprintf("solvelog_%s.db", env)
		p.legacyFileName = fmt.Sprintf("sessions_%s.json", env)
		p.logFileName = fmt.Sprintf("solvelog_%s.log", env)
	}

	return p
}

// Must panics if paths haven't been initialized.
func Must() *Paths {
	if paths == nil {
		panic("pathutil.Initialize() must be called before accessing paths")
	}

	return paths
}

func ConfigFilePath() string {
	return Must().configFilePath
}

func DBFilePath() string {
	return Must().dbFilePath
}

// LegacyFilePath is the JSON session list written by earlier versions.
func LegacyFilePath() string {
	return Must().legacyFilePath
}

func LogFilePath() string {
	return Must().logFilePath
}

func (p *Paths) computePaths() error {
	var err error

	p.configFilePath, err = xdg.ConfigFile(filepath.Join(p.appDir, p.configFileName))
	if err != nil {
		return err
	}

	dataDir, err := xdg.DataFile(p.appDir)
	if err != nil {
		return err
	}

	p.dbFilePath = filepath.Join(dataDir, p.dbFileName)
	p.legacyFilePath = filepath.Join(dataDir, p.legacyFileName)
	p.logFilePath = filepath.Join(dataDir, "log", p.logFileName)

	return nil
}
