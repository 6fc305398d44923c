package textutil

import (
	"testing"
	"unicode/utf8"
)

func assertValidUTF8(t *testing.T, s string) {
	t.Helper()
	if !utf8.ValidString(s) {
		t.Errorf("result is not valid UTF-8: %q", s)
	}
}

func TestEnsureUTF8_AlreadyValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ASCII", "Hello, World!"},
		{"UTF-8 Chinese", "你好世界"},
		{"UTF-8 Cyrillic", "Привет мир"},
		{"UTF-8 emoji", "Hello 👋 World 🌍"},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EnsureUTF8(tt.input)
			if result != tt.input {
				t.Errorf("got %q, want %q", result, tt.input)
			}
			assertValidUTF8(t, result)
		})
	}
}

func TestEnsureUTF8_LegacyEncodings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"windows-1252 smart quote", "Rand\x92s Opponent", "Rand’s Opponent"},
		{"windows-1252 en dash", "2020 \x96 2024", "2020 – 2024"},
		{"windows-1252 em dash", "Hello\x97World", "Hello—World"},
		{"windows-1252 double quotes", "\x93Hello\x94", "“Hello”"},
		{"windows-1252 euro", "Price: \x80100", "Price: €100"},
		{"latin-1 c cedilla", "Gar\xe7on", "Garçon"},
		{"latin-1 u umlaut", "M\xfcnchen", "München"},
		{"latin-1 n tilde", "Espa\xf1a", "España"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EnsureUTF8(tt.input)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
			assertValidUTF8(t, result)
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"valid UTF-8 unchanged", "Hello, 世界!", "Hello, 世界!"},
		{"single invalid byte", "Hello\x80World", "Hello�World"},
		{"multiple invalid bytes", "Test\x80\x81\x82String", "Test���String"},
		{"truncated UTF-8 sequence", "Hello\xc3", "Hello�"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeUTF8(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			assertValidUTF8(t, result)
		})
	}
}

func TestGetEncodingByName(t *testing.T) {
	tests := []struct {
		name     string
		charset  string
		input    []byte
		expected string
	}{
		{"windows-1252 smart quote", "windows-1252", []byte{0x92}, "’"},
		{"CP1252 alias", "CP1252", []byte{0x92}, "’"},
		{"latin-1 e acute", "ISO-8859-1", []byte{0xe9}, "é"},
		{"latin1 alias", "latin1", []byte{0xe9}, "é"},
		{"Shift_JIS hiragana", "Shift_JIS", []byte{0x82, 0xa0, 0x82, 0xa2}, "あい"},
		{"EUC-JP hiragana", "EUC-JP", []byte{0xa4, 0xa2, 0xa4, 0xa4}, "あい"},
		{"GBK chinese", "GBK", []byte{0xc4, 0xe3, 0xba, 0xc3}, "你好"},
		{"Big5 chinese", "Big5", []byte{0xa7, 0x41, 0xa6, 0x6e}, "你好"},
		{"EUC-KR korean", "EUC-KR", []byte{0xbe, 0xc8, 0xb3, 0xe7}, "안녕"},
		{"KOI8-R cyrillic", "KOI8-R", []byte{0xf0, 0xf2, 0xe9, 0xf7, 0xe5, 0xf4}, "ПРИВЕТ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := GetEncodingByName(tt.charset)
			if enc == nil {
				t.Fatalf("GetEncodingByName(%q) = nil, want encoding", tt.charset)
			}
			decoded, err := enc.NewDecoder().Bytes(tt.input)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if string(decoded) != tt.expected {
				t.Errorf("decoded %q, want %q", string(decoded), tt.expected)
			}
		})
	}
}

func TestGetEncodingByName_Unknown(t *testing.T) {
	for _, charset := range []string{"unknown-charset", ""} {
		if enc := GetEncodingByName(charset); enc != nil {
			t.Errorf("GetEncodingByName(%q) = %v, want nil", charset, enc)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		expected string
	}{
		{"short ASCII", "Hello", 10, "Hello"},
		{"exact length", "Hello", 5, "Hello"},
		{"truncate ASCII", "Hello World", 8, "Hello..."},
		{"empty string", "", 5, ""},
		{"max 3", "Hello", 3, "Hel"},
		{"max 4", "Hello", 4, "H..."},
		{"UTF-8 no truncate", "你好世界", 4, "你好世界"},
		{"UTF-8 truncate", "你好世界！", 4, "你..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateRunes(tt.input, tt.maxRunes)
			if result != tt.expected {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, result, tt.expected)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single line", "Hello World", "Hello World"},
		{"crlf", "first\r\nsecond", "first"},
		{"lf only", "first\nsecond", "first"},
		{"empty", "", ""},
		{"leading newline", "\nsecond", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstLine(tt.input); got != tt.expected {
				t.Errorf("FirstLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
