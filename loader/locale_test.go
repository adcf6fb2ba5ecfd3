package loader

import "testing"

func TestMatchLocale(t *testing.T) {
	c, err := Load("testdata/json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		want, got string
	}{
		{"", "en"},
		{"en", "en"},
		{"en-GB", "en-GB"},
		{"fr", "fr"},
		{"fr-CA", "fr"},
		{"de", "en"},
		{"!!", "en"},
	}
	for _, tt := range tests {
		if got := MatchLocale(c, tt.want); got != tt.got {
			t.Errorf("MatchLocale(%q) = %q, want %q", tt.want, got, tt.got)
		}
	}
}

func TestMatchLocale_NoTables(t *testing.T) {
	c := validContent()
	c.Locales = nil
	if got := MatchLocale(c, "fr"); got != "en" {
		t.Errorf("expected default locale, got %q", got)
	}
}
