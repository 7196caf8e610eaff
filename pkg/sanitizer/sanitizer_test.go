package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", "   \t  ", ""},
		{"leading and trailing", "  Taro Yamada  ", "Taro Yamada"},
		{"internal runs collapsed", "Taro   \t Yamada", "Taro Yamada"},
		{"already clean", "Taro Yamada", "Taro Yamada"},
		{"full-width safe", "山田 太郎", "山田 太郎"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Hanako \t Sato "); got != "Hanako Sato" {
		t.Errorf("NormalizeName() = %q, want %q", got, "Hanako Sato")
	}
}

func TestNormalizeFreeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"single line trimmed", "  want to learn Go  ", "want to learn Go"},
		{"keeps line breaks", "first line\nsecond line", "first line\nsecond line"},
		{"crlf normalized", "first\r\nsecond", "first\nsecond"},
		{"surrounding blank lines dropped", "\n\n  note  \n\n", "note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFreeText(tt.input); got != tt.expected {
				t.Errorf("NormalizeFreeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
