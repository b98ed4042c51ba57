package weaverlog

import "testing"

func TestNewDefaultsToTerminal(t *testing.T) {
	logger, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
}

func TestNewRejectsUnknownStyle(t *testing.T) {
	if _, err := New(Config{Style: "carrier-pigeon"}); err == nil {
		t.Fatal("expected an error for an unknown style")
	}
}

func TestNewBuildsEachKnownStyle(t *testing.T) {
	for _, style := range []Style{StyleTerminal, StyleJSON, StyleLogfmt, StyleNoop} {
		if _, err := New(Config{Style: style}); err != nil {
			t.Fatalf("style %s: %v", style, err)
		}
	}
}
