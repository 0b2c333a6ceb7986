package utils

import "testing"

func TestIsEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"alice@example.com", true},
		{" bob@example.co.uk ", true},
		{"no-at-sign", false},
		{"@example.com", false},
		{"trailing@", false},
		{"nodot@localhost", false},
		{"two words@example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsEmail(tc.in); got != tc.want {
			t.Errorf("IsEmail(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFilterNonEmpty(t *testing.T) {
	got := FilterNonEmpty([]string{" a ", "", "b", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
	if FilterNonEmpty(nil) != nil {
		t.Error("nil input should stay nil")
	}
}
