package mac

import "testing"

func TestNormalizeFoldsSeparatorsAndCase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff"},
		{"aa:bb:cc:dd:ee:ff", "aa:bb:cc:dd:ee:ff"},
		{"Aa:bB-cC:Dd-Ee:fF", "aa:bb:cc:dd:ee:ff"},
		{"  11:22:33:44:55:66\n", "11:22:33:44:55:66"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize("AA-BB-CC-DD-EE-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("normalization not idempotent: %q vs %q", first, second)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not-a-mac", "aa:bb:cc:dd:ee", "aa:bb:cc:dd:ee:ff:00", "gg:hh:ii:jj:kk:ll", "aabbccddeeff"} {
		if _, err := Normalize(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("AA-BB-CC-DD-EE-FF") {
		t.Fatalf("expected valid")
	}
	if IsValid("nope") {
		t.Fatalf("expected invalid")
	}
}
