package universe

import (
	"testing"

	"options-screener/internal/models"
)

func TestInstrumentsClassification(t *testing.T) {
	insts := Instruments()
	if len(insts) != 24 {
		t.Fatalf("got %d instruments, want 24", len(insts))
	}

	seen := make(map[string]bool)
	for _, inst := range insts {
		if seen[inst.Symbol] {
			t.Errorf("duplicate symbol %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
	}

	for _, sym := range []string{"NIFTY", "BANKNIFTY", "FINNIFTY", "MIDCPNIFTY"} {
		inst, ok := Lookup(sym)
		if !ok || inst.Type != models.InstrumentIndex {
			t.Errorf("%s should be an index, got %+v", sym, inst)
		}
	}
	if inst, ok := Lookup("RELIANCE"); !ok || inst.Type != models.InstrumentStock {
		t.Errorf("RELIANCE should be a stock, got %+v", inst)
	}
	if _, ok := Lookup("UNKNOWN"); ok {
		t.Error("unexpected instrument for UNKNOWN")
	}
}

func TestSymbolsMatchInstruments(t *testing.T) {
	symbols := Symbols()
	instruments := Instruments()
	if len(symbols) != len(instruments) {
		t.Fatalf("%d symbols for %d instruments", len(symbols), len(instruments))
	}
	for i := range symbols {
		if symbols[i] != instruments[i].Symbol {
			t.Errorf("position %d: %s != %s", i, symbols[i], instruments[i].Symbol)
		}
	}
}
