package textutil

import (
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
)

// Substitute is the replacement character used by SanitizeForFilesystem
// for anything outside the allowed set.
const Substitute = '_'

// Allowed character sets and length caps for the two path segments the
// archiver builds from decoded header text.
const (
	SenderAllowedChars  = "@.-_"
	SenderMaxLen        = 50
	FilenameAllowedChars = ".-_"
	FilenameMaxLen      = 100
)

// headerFallbackLen caps the raw header text returned when decoding fails.
const headerFallbackLen = 100

// DecodeHeader decodes an RFC 2047 encoded-word header value to UTF-8.
// Unknown charsets are resolved via GetEncodingByName. Decoding never
// fails: on any error the raw input is returned, truncated to 100
// characters, matching the archiver's lenient header handling.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}
	dec := mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return truncateChars(raw, headerFallbackLen)
	}
	return EnsureUTF8(decoded)
}

// charsetReader resolves non-UTF-8 encoded words for mime.WordDecoder.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc := GetEncodingByName(charset)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// SanitizeForFilesystem maps every character outside
// {letters, digits} ∪ allowed to '_' and truncates the result to maxLen
// characters. It is total: any input produces a usable path segment.
func SanitizeForFilesystem(s, allowed string, maxLen int) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowed, r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(Substitute)
		}
	}
	return truncateChars(sb.String(), maxLen)
}

// Keyword tokens are length-bounded so the index skips noise words and
// unbounded junk tokens.
const (
	keywordMinLen = 3
	keywordMaxLen = 30
)

// Keywords derives the index token set from the given texts (typically
// decoded subject and sender). Tokens are case-folded, stripped to
// letters and digits, length-filtered, and deduplicated. The result is
// sorted so index writes are deterministic.
func Keywords(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, word := range strings.Fields(strings.ToLower(text)) {
			token := stripNonAlnum(word)
			n := len([]rune(token))
			if n < keywordMinLen || n > keywordMaxLen {
				continue
			}
			seen[token] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// stripNonAlnum removes everything except letters and digits.
func stripNonAlnum(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// truncateChars truncates to maxLen characters without splitting a rune.
func truncateChars(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
