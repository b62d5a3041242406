package user

import "testing"

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"ayse":  "AY",
		"ö":     "Ö",
		"":      "",
		"şükrü": "ŞÜ",
	}

	for name, want := range cases {
		if got := (User{Username: name}).Initials(); got != want {
			t.Errorf("Initials(%q) = %q, want %q", name, got, want)
		}
		if got := (Participant{Username: name}).Initials(); got != want {
			t.Errorf("Participant Initials(%q) = %q, want %q", name, got, want)
		}
	}
}
