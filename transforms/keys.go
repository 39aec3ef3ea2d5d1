package transforms

import (
	"strings"
	"unicode"
)

// SnakeToCamel is a key transform: user_name -> userName.
func SnakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}

	var b strings.Builder
	b.Grow(len(key))
	upper := false
	for i, r := range key {
		switch {
		case r == '_':
			upper = b.Len() > 0
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CamelToSnake is a key transform: userName -> user_name, HTTPCode -> http_code.
func CamelToSnake(key string) string {
	runes := []rune(key)

	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			acronymEnd := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || acronymEnd {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lowercase is a key transform folding keys to lower case.
func Lowercase(key string) string {
	return strings.ToLower(key)
}

// KeyTransforms maps the names accepted in mapping files to key transforms.
var KeyTransforms = map[string]func(string) string{
	"snake_to_camel": SnakeToCamel,
	"camel_to_snake": CamelToSnake,
	"lower":          Lowercase,
}
