package markdown

import "testing"

func TestEscapeV2(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Summarizing 🧠", "Summarizing 🧠"},
		{"ellipsis", "Summarizing... 🧠", `Summarizing\.\.\. 🧠`},
		{"apostrophe is not special", "extension's options", "extension's options"},
		{"punctuation", "tl;dr: a-b (c) [d] !", `tl;dr: a\-b \(c\) \[d\] \!`},
		{"backslash", `C:\path`, `C:\\path`},
		{"backtick", "use `go`", "use \\`go\\`"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := EscapeV2(test.input); got != test.want {
				t.Fatalf("EscapeV2(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestEntities(t *testing.T) {
	if got := Bold("Options."); got != `*Options\.*` {
		t.Fatalf("Bold = %q", got)
	}

	if got := Italic("Enter API Key for Cohere"); got != "_Enter API Key for Cohere_" {
		t.Fatalf("Italic = %q", got)
	}

	if got := Code("••••a`b"); got != "`••••a\\`b`" {
		t.Fatalf("Code = %q", got)
	}
}

func TestEscapeV2Limit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{"fits", "tl;dr: done.", 64, `tl;dr: done\.`},
		{"cut plain text", "abcdefghij", 8, "abcde…"},
		{"escape pair kept whole", "abcd.efgh", 8, "abcd…"},
		{"escape pair fits", "abcd.efgh", 9, `abcd\.…`},
		{"exact fit is not cut", "abcd.efgh", 10, `abcd\.efgh`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := EscapeV2Limit(test.input, test.limit)
			if got != test.want {
				t.Fatalf("EscapeV2Limit(%q, %d) = %q, want %q", test.input, test.limit, got, test.want)
			}
			if len(got) > test.limit {
				t.Fatalf("result is %d bytes, over the %d limit", len(got), test.limit)
			}
		})
	}
}
