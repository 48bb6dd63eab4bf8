package escaping

import "testing"

func TestEscapeNonSpecial(t *testing.T) {
	s := "The quick brown fox jumps over the lazy dog"
	if got := Escape(s); got != s {
		t.Errorf("got %q", got)
	}
}

func TestEscapeSpecial(t *testing.T) {
	s := "\x00\n\r\\"
	got := Escape(s)
	want := `\0\n\r\\`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	s := "\x00\n\r\\hello"
	escaped := Escape(s)
	unescaped, err := Unescape(escaped)
	if err != nil {
		t.Fatal(err)
	}
	if unescaped != s {
		t.Errorf("got %q, want %q", unescaped, s)
	}
}

func TestUnescapeTrailingBackslash(t *testing.T) {
	if _, err := Unescape(`abc\`); err == nil {
		t.Error("expected trailing backslash error")
	}
}

func TestUnescapeInvalidEscape(t *testing.T) {
	if _, err := Unescape(`\q`); err == nil {
		t.Error("expected invalid escape error")
	}
}
