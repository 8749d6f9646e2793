package ast

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// namedEntities maps the entity names POML recognizes to their decoded
// text. Lookup is exact; &AMP; is not a known entity.
var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

// decodeEntity decodes a complete entity image such as "&amp;" or
// "&#x41;". It returns false for unknown names and invalid code
// points; callers fall back to the raw image.
func decodeEntity(image string) (string, bool) {
	body := strings.TrimSuffix(strings.TrimPrefix(image, "&"), ";")
	if !strings.HasPrefix(body, "#") {
		s, ok := namedEntities[body]
		return s, ok
	}

	num := body[1:]
	base := 10
	if len(num) > 0 && (num[0] == 'x' || num[0] == 'X') {
		num = num[1:]
		base = 16
	}
	n, err := strconv.ParseInt(num, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return "", false
	}
	return string(rune(n)), true
}

// decodeEscape decodes an escape image such as `\n`, `\{{`, or
// `\u0041`. Hex forms build the code point itself, so astral-plane
// values come out as one rune. It returns false when the code point is
// invalid.
func decodeEscape(image string) (string, bool) {
	switch image[1] {
	case 'n':
		return "\n", true
	case 'r':
		return "\r", true
	case 't':
		return "\t", true
	case '\'':
		return "'", true
	case '"':
		return `"`, true
	case '\\':
		return `\`, true
	case '{':
		return "{{", true
	case '}':
		return "}}", true
	default:
		n, err := strconv.ParseInt(image[2:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return "", false
		}
		return string(rune(n)), true
	}
}
