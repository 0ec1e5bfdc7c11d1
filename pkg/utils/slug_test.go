package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Top Shōnen 2024", "top-shonen-2024"},
		{"  Mon Classement Préféré!  ", "mon-classement-prefere"},
		{"---", ""},
		{"A--B", "a-b"},
		{"Déjà vu", "deja-vu"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("abcde ", 30)
	got := Slugify(long)
	if len(got) > 60 {
		t.Fatalf("slug too long: %d chars", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("slug has trailing dash: %q", got)
	}
}

func TestHandleify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"John Doe", "john-doe"},
		{"john.doe@example.com", "john-doe"},
		{"édouard@mail.fr", "edouard"},
	}
	for _, c := range cases {
		if got := Handleify(c.in); got != c.want {
			t.Errorf("Handleify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Béré "); got != "bere" {
		t.Errorf("Fold = %q, want %q", got, "bere")
	}
}
