package ipbauth

import (
	"net"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonicalizer maps a forum username to the host canonical form. ok is
// false when the name is not valid for creating a host account.
type Canonicalizer interface {
	Canonical(name string) (canonical string, ok bool)
}

// CanonicalizerFunc adapts a function to the Canonicalizer interface
type CanonicalizerFunc func(name string) (string, bool)

func (f CanonicalizerFunc) Canonical(name string) (string, bool) {
	return f(name)
}

// DefaultMaxNameLength is the host limit on username length, in bytes
const DefaultMaxNameLength = 255

// DefaultInvalidNameChars are characters a host username may not contain
const DefaultInvalidNameChars = "#<>[]|{}/@:="

// TitleCanonicalizer implements wiki style username rules: underscores and
// spaces are equivalent, the first letter is upper case, and names that
// look like IP addresses, contain reserved characters or are listed in
// Reserved are rejected.
type TitleCanonicalizer struct {
	MaxLength    int
	InvalidChars string
	Reserved     []string
	// Separator replaces underscores and spaces in the canonical form
	Separator string
}

// NewTitleCanonicalizer returns a TitleCanonicalizer with the default rules
func NewTitleCanonicalizer(reserved ...string) TitleCanonicalizer {
	return TitleCanonicalizer{
		MaxLength:    DefaultMaxNameLength,
		InvalidChars: DefaultInvalidNameChars,
		Reserved:     reserved,
		Separator:    " ",
	}
}

func (t TitleCanonicalizer) Canonical(name string) (string, bool) {
	sep := t.Separator
	if sep == "" {
		sep = " "
	}

	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", false
	}

	r, size := utf8.DecodeRuneInString(name)
	name = string(unicode.ToUpper(r)) + name[size:]

	if !t.creatable(name) {
		return "", false
	}

	return strings.ReplaceAll(name, " ", sep), true
}

func (t TitleCanonicalizer) creatable(name string) bool {
	maxLen := t.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}
	if len(name) > maxLen {
		return false
	}

	if t.InvalidChars != "" && strings.ContainsAny(name, t.InvalidChars) {
		return false
	}

	for _, r := range name {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return false
		}
	}

	if net.ParseIP(name) != nil {
		return false
	}

	for _, reserved := range t.Reserved {
		if strings.EqualFold(reserved, name) {
			return false
		}
	}

	return true
}
