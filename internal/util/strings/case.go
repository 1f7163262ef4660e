// Package strings holds the naming rules that map Go identifiers onto
// script-visible names.
package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts CamelCase to snake_case.
// Acronyms stay together: HTTPRequest -> http_request, ID -> id.
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsLower(prev), unicode.IsDigit(prev):
				b.WriteRune('_')
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// TrimTypePrefix strips a type name from the front of a constant name:
// PlayerStatusIdle -> Idle. Names that would become empty or would not
// start with a letter are returned unchanged.
func TrimTypePrefix(name, typeName string) string {
	rest, ok := strings.CutPrefix(name, typeName)
	if !ok || rest == "" {
		return name
	}
	if r := []rune(rest)[0]; !unicode.IsLetter(r) {
		return name
	}
	return rest
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// IsLuaIdentifier reports whether s can be used with dotted access from
// Lua, i.e. it is a valid name and not a reserved word.
func IsLuaIdentifier(s string) bool {
	if s == "" || luaKeywords[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r < 0x80 && unicode.IsLetter(r):
		case i > 0 && r < 0x80 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
