package validation

import "testing"

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	valid := []string{"Password123", "CorrectHorse9", "Aa345678"}
	for _, p := range valid {
		if err := ValidatePassword(p); err != nil {
			t.Errorf("ValidatePassword(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{
		"Short1A",      // too short
		"alllowercase1",
		"ALLUPPERCASE1",
		"NoDigitsHere",
	}
	for _, p := range invalid {
		if err := ValidatePassword(p); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", p)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	valid := []string{"alice", "bob_smith", "user-42", "abc"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ab",          // too short
		"_leading",
		"trailing_",
		"-leading",
		"has space",
		"has@symbol",
	}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) = nil, want error", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	valid := []string{"a@b.co", "alice.smith+tag@example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "plain", "missing@tld", "@example.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", e)
		}
	}
}
