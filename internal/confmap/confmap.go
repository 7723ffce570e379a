package confmap

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"
)

// Map is a JSON-compatible configuration document: string keys with scalar,
// slice, or nested Map values.
type Map = map[string]any

// Parse decodes a stored fragment into a Map. Absent, empty, or malformed
// text yields an empty Map so a single corrupt fragment never breaks a
// configuration read; the failure is logged for operators. The label
// identifies the owning entity in the diagnostic.
func Parse(text string, label string) Map {
	if text == "" {
		return Map{}
	}
	var m Map
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		log.Printf("failed to load config fragment %s: %q: %v", label, text, err)
		return Map{}
	}
	if m == nil {
		return Map{}
	}
	return m
}

// Dump serializes a Map for storage. Callers keep the previously stored
// value when Dump fails, so a bad write never clobbers good data.
func Dump(m Map) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to dump config fragment: %w", err)
	}
	return string(b), nil
}

// DeepMerge merges src into dst in place. Nested maps combine key-wise;
// anything else is replaced by the incoming value. A nil or empty src is a
// no-op. dst must not be nil.
func DeepMerge(dst Map, src Map) {
	for key, incoming := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = incoming
			continue
		}
		existingMap, existingIsMap := existing.(map[string]any)
		incomingMap, incomingIsMap := incoming.(map[string]any)
		if existingIsMap && incomingIsMap {
			DeepMerge(existingMap, incomingMap)
			continue
		}
		dst[key] = incoming
	}
}

// TitleKeys flattens m into a string-to-string mapping with keys normalized
// to title case. Used for switch credentials, whose consumers expect
// canonical key spelling regardless of how they were stored.
func TitleKeys(m Map) map[string]string {
	out := make(map[string]string, len(m))
	for key, value := range m {
		out[titleCase(key)] = fmt.Sprintf("%v", value)
	}
	return out
}

// titleCase uppercases the first letter of every word and lowercases the
// rest. Any non-letter is a word boundary, so "user_name" becomes
// "User_Name".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			b.WriteRune(r)
			inWord = false
		case inWord:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToUpper(r))
			inWord = true
		}
	}
	return b.String()
}
