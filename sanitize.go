package ipbauth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	doubleEncodedEntity = regexp.MustCompile(`&amp;#([0-9]+);`)
	unterminatedEntity  = regexp.MustCompile(`&#(\d+?)([^\d;])`)

	specialChars = strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"'", "&apos;",
		"<", "&lt;",
		">", "&gt;",
	)
)

// Sanitize cleans a username or password the same way the forum software
// does before it stores or looks the value up, so lookups agree with the
// stored representation. The steps are order dependent.
func Sanitize(value string) string {
	if value == "" {
		return ""
	}

	value = escapeBackslashes(value)

	// the forum stores invalid UTF-8 input as an empty value
	if !utf8.ValidString(value) {
		return ""
	}
	value = specialChars.Replace(value)

	value = strings.ReplaceAll(value, "&#032;", " ")

	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\n\r", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")

	value = strings.ReplaceAll(value, "<!--", "&#60;&#33;--")
	value = strings.ReplaceAll(value, "-->", "--&#62;")
	value = replaceFoldASCII(value, "<script", "&#60;script")

	value = strings.ReplaceAll(value, "\n", "<br />")

	value = strings.ReplaceAll(value, "$", "&#036;")
	value = strings.ReplaceAll(value, "!", "&#33;")

	value = doubleEncodedEntity.ReplaceAllString(value, "&#${1};")
	value = unterminatedEntity.ReplaceAllString(value, "&#${1};${2}")

	return value
}

// escapeBackslashes turns a backslash into &#092; unless it already starts an
// encoded sequence (&#, &amp;# or ?#).
func escapeBackslashes(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		rest := value[i+1:]
		if strings.HasPrefix(rest, "&amp;#") || strings.HasPrefix(rest, "&#") || strings.HasPrefix(rest, "?#") {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&#092;")
	}
	return b.String()
}

// replaceFoldASCII replaces every ASCII case-insensitive occurrence of old.
// old must be ASCII and lower case.
func replaceFoldASCII(s, old, repl string) string {
	n := len(old)
	if len(s) < n {
		return s
	}

	var b strings.Builder
	last := 0
	for i := 0; i+n <= len(s); {
		if equalFoldASCII(s[i:i+n], old) {
			b.WriteString(s[last:i])
			b.WriteString(repl)
			i += n
			last = i
			continue
		}
		i++
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func equalFoldASCII(s, lower string) bool {
	for i := 0; i < len(lower); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lower[i] {
			return false
		}
	}
	return true
}
