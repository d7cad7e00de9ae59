package snapshot

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ASCII folds s to the ASCII subset the wire format carries.
//
// Accented letters lose their marks (NFD, drop Mn, recompose); any rune that
// is still outside ASCII becomes '?', the same substitution a lossy ASCII
// encoder makes.
func ASCII(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return '?'
			}
			return r
		}),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return asciiFallback(s)
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func asciiFallback(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r > unicode.MaxASCII {
			r = '?'
		}
		out = append(out, r)
	}
	return string(out)
}
