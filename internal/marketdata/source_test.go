package marketdata

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewSelectsSource(t *testing.T) {
	src, err := New(Config{Source: "Simulated"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if src.Name() != SourceSimulated {
		t.Errorf("Name = %q", src.Name())
	}
	if _, ok := src.(*ResilientSource); !ok {
		t.Errorf("expected a resilient wrapper, got %T", src)
	}

	if _, err := New(Config{Source: "bloomberg"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown source")
	}
	if _, err := New(Config{Source: SourceKite}, zerolog.Nop()); err == nil {
		t.Error("expected error for kite without credentials")
	}
}
