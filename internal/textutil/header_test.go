package textutil

import (
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "", ""},
		{"plain ascii", "Quarterly Report", "Quarterly Report"},
		{"utf8 q-encoded", "=?UTF-8?Q?Caf=C3=A9_Receipt?=", "Café Receipt"},
		{"utf8 b-encoded", "=?utf-8?B?SGVsbG8gV29ybGQ=?=", "Hello World"},
		{
			"multiple encoded words",
			"=?UTF-8?Q?Hell?= =?UTF-8?Q?o?=",
			"Hello",
		},
		{
			"latin1 q-encoded",
			"=?ISO-8859-1?Q?M=FCller?=",
			"Müller",
		},
		{
			"mixed plain and encoded",
			"Re: =?UTF-8?Q?Pr=C3=BCfung?= attached",
			"Re: Prüfung attached",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeHeader(tt.raw); got != tt.expected {
				t.Errorf("DecodeHeader(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestDecodeHeader_FallbackTruncates(t *testing.T) {
	// Malformed base64 payload forces the decode error path; the raw
	// text comes back capped at 100 characters.
	raw := "=?utf-8?B?!!!not-base64!!!?=" + strings.Repeat("x", 200)
	got := DecodeHeader(raw)
	if len([]rune(got)) != 100 {
		t.Errorf("fallback length = %d, want 100", len([]rune(got)))
	}
	if !strings.HasPrefix(raw, got) {
		t.Errorf("fallback %q is not a prefix of the raw header", got)
	}
}

func TestSanitizeForFilesystem(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  string
		maxLen   int
		expected string
	}{
		{"plain filename", "report.pdf", FilenameAllowedChars, FilenameMaxLen, "report.pdf"},
		{"space becomes underscore", "report final.pdf", FilenameAllowedChars, FilenameMaxLen, "report_final.pdf"},
		{"sender keeps at-sign", "alice@example.com", SenderAllowedChars, SenderMaxLen, "alice@example.com"},
		{"at-sign stripped for filenames", "a@b.txt", FilenameAllowedChars, FilenameMaxLen, "a_b.txt"},
		{"path separators replaced", "../../etc/passwd", FilenameAllowedChars, FilenameMaxLen, ".._.._etc_passwd"},
		{"unicode letters kept", "résumé.doc", FilenameAllowedChars, FilenameMaxLen, "résumé.doc"},
		{"truncated", strings.Repeat("a", 120), FilenameAllowedChars, FilenameMaxLen, strings.Repeat("a", 100)},
		{"empty", "", FilenameAllowedChars, FilenameMaxLen, ""},
		{"zero max", "abc", FilenameAllowedChars, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForFilesystem(tt.input, tt.allowed, tt.maxLen); got != tt.expected {
				t.Errorf("SanitizeForFilesystem(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// Every output character must be alphanumeric, in the allowed set, or the
// substitute, and the output never exceeds maxLen.
func TestSanitizeForFilesystem_OutputAlphabet(t *testing.T) {
	inputs := []string{
		"hello world", "日本語テスト.txt", "a\x00b\x7fc", "<script>alert(1)</script>",
		"..\\..\\windows", strings.Repeat("?", 300), "mixed UTF-8 ☃ and ascii",
	}
	for _, input := range inputs {
		got := SanitizeForFilesystem(input, FilenameAllowedChars, FilenameMaxLen)
		if n := len([]rune(got)); n > FilenameMaxLen {
			t.Errorf("output %q exceeds max length: %d", got, n)
		}
		for _, r := range got {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(FilenameAllowedChars, r) || r == Substitute {
				continue
			}
			t.Errorf("input %q: output rune %q outside allowed alphabet", input, r)
		}
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		texts    []string
		expected []string
	}{
		{
			"subject and sender",
			[]string{"Q3 Report", "alice@example.com"},
			[]string{"aliceexamplecom", "report"},
		},
		{
			"case folded and deduped",
			[]string{"Report REPORT report"},
			[]string{"report"},
		},
		{
			"short tokens dropped",
			[]string{"a an the of report"},
			[]string{"report", "the"},
		},
		{
			"punctuation stripped",
			[]string{"re: [urgent!] invoice#42"},
			[]string{"invoice42", "urgent"},
		},
		{
			"overlong token dropped",
			[]string{strings.Repeat("x", 31) + " budget"},
			[]string{"budget"},
		},
		{
			"empty input",
			[]string{"", "  "},
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.texts...)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Keywords(%v) mismatch (-want +got):\n%s", tt.texts, diff)
			}
		})
	}
}

func TestKeywords_LengthBounds(t *testing.T) {
	// Exactly 3 and exactly 30 characters are kept; 2 and 31 are not.
	got := Keywords("ab abc " + strings.Repeat("y", 30) + " " + strings.Repeat("z", 31))
	want := []string{"abc", strings.Repeat("y", 30)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("boundary tokens mismatch (-want +got):\n%s", diff)
	}
}
