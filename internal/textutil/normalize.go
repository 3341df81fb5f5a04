package textutil

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// fallbackDecoders are tried in order when content is not valid UTF-8.
var fallbackDecoders = []*charmap.Charmap{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// Decode interprets raw file bytes as text. Valid UTF-8 passes through;
// otherwise the fallback encodings are tried. Returns false when no
// decoding produces usable text.
func Decode(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}
	for _, cm := range fallbackDecoders {
		decoded, err := cm.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), true
	}
	return "", false
}

// NormalizeText applies NFC normalization and collapses all whitespace
// runs to single spaces.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// commentPrefixes mark lines dropped during code normalization.
var commentPrefixes = []string{"#", "//", "/*"}

// NormalizeCode trims each line, drops empty and comment-only lines,
// and joins the remainder with single spaces.
func NormalizeCode(content string) string {
	lines := strings.Split(norm.NFC.String(content), "\n")
	kept := make([]string, 0, len(lines))
lineLoop:
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range commentPrefixes {
			if strings.HasPrefix(line, prefix) {
				continue lineLoop
			}
		}
		kept = append(kept, strings.Join(strings.Fields(line), " "))
	}
	return strings.Join(kept, " ")
}

// SortTokens returns the text's whitespace-delimited tokens in sorted
// order, joined by single spaces. Used for order-insensitive fuzzy
// comparison.
func SortTokens(text string) string {
	tokens := strings.Fields(text)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// UniqueSortedTokens returns the deduplicated sorted token join. Used
// for set-based fuzzy comparison of source code.
func UniqueSortedTokens(text string) string {
	fields := strings.Fields(text)
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
