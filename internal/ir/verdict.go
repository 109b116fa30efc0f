package ir

import (
	"fmt"
	"strings"
)

// Verdict is the three-valued compatibility answer. The zero value is
// Compatible; larger values are worse.
type Verdict int

const (
	Compatible Verdict = iota
	Maybe
	Incompatible
)

func (v Verdict) String() string {
	switch v {
	case Compatible:
		return "Compatible"
	case Maybe:
		return "Maybe"
	case Incompatible:
		return "Incompatible"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (case-insensitive).
func (v *Verdict) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "compatible":
		*v = Compatible
	case "maybe":
		*v = Maybe
	case "incompatible":
		*v = Incompatible
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Worst folds verdicts: Incompatible > Maybe > Compatible.
// Worst() with no arguments is Compatible.
func Worst(verdicts ...Verdict) Verdict {
	out := Compatible
	for _, v := range verdicts {
		if v > out {
			out = v
		}
	}
	return out
}
