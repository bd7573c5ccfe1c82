package session

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// Difficulty is either a numeric rating (e.g. a Codeforces rating) or a
// label (e.g. "Medium"). At most one of the two is set; neither means the
// difficulty is unknown. On the wire it is a number, a string or null.
type Difficulty struct {
	Rating *float64
	Label  string
}

// Rating returns a numeric difficulty.
func Rating(v float64) Difficulty {
	return Difficulty{Rating: &v}
}

// Label returns a textual difficulty.
func Label(s string) Difficulty {
	return Difficulty{Label: s}
}

// ParseDifficulty coerces a number, a numeric string or a label.
func ParseDifficulty(v any) Difficulty {
	switch val := v.(type) {
	case nil:
		return Difficulty{}
	case Difficulty:
		return val.Normalize()
	case string:
		return Label(val).Normalize()
	case bool:
		return Difficulty{}
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return Label(cast.ToString(v)).Normalize()
	}

	return Rating(f).Normalize()
}

// IsZero reports whether the difficulty is unknown.
func (d Difficulty) IsZero() bool {
	return d.Rating == nil && d.Label == ""
}

// String renders the difficulty for display.
func (d Difficulty) String() string {
	if d.Rating != nil {
		return strconv.FormatFloat(*d.Rating, 'f', -1, 64)
	}

	return d.Label
}

// Normalize reduces the difficulty to exactly one representation. A rating
// wins over a label, numeric labels become ratings and labels are title
// cased.
func (d Difficulty) Normalize() Difficulty {
	if d.Rating != nil {
		if math.IsNaN(*d.Rating) || math.IsInf(*d.Rating, 0) {
			return Difficulty{}
		}

		return Rating(*d.Rating)
	}

	label := strings.TrimSpace(d.Label)
	if label == "" {
		return Difficulty{}
	}

	if f, err := strconv.ParseFloat(label, 64); err == nil {
		return Rating(f).Normalize()
	}

	return Label(titleCase(label))
}

func titleCase(s string) string {
	words := strings.Fields(s)

	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}

	return strings.Join(words, " ")
}

func (d Difficulty) MarshalJSON() ([]byte, error) {
	if d.Rating != nil {
		return json.Marshal(*d.Rating)
	}

	if d.Label != "" {
		return json.Marshal(d.Label)
	}

	return []byte("null"), nil
}

func (d *Difficulty) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*d = Difficulty{}
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*d = Label(s)

		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}

	*d = Rating(f)

	return nil
}
