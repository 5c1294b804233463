package resolver

import (
	"testing"

	"NewsEdge/internal/domain/models"
)

func item(headline, body string) *models.NewsItem {
	return &models.NewsItem{ID: "n1", Headline: headline, Body: body}
}

func findSymbol(syms []models.ExtractedSymbol, instrument string) (models.ExtractedSymbol, bool) {
	for _, s := range syms {
		if s.Instrument == instrument {
			return s, true
		}
	}
	return models.ExtractedSymbol{}, false
}

func TestResolveAliasCaseInsensitive(t *testing.T) {
	r := New(nil)

	for _, headline := range []string{
		"Apple beats earnings expectations",
		"APPLE beats earnings expectations",
		"apple beats earnings expectations",
	} {
		syms := r.Resolve(item(headline, ""))
		s, ok := findSymbol(syms, "AAPL")
		if !ok {
			t.Fatalf("headline %q: AAPL not resolved", headline)
		}
		if s.Confidence != 0.95 {
			t.Errorf("headline %q: confidence = %v, want 0.95", headline, s.Confidence)
		}
	}
}

func TestResolveLongestAliasWins(t *testing.T) {
	table := NewTable([]Alias{
		{"apple", "AAPL"},
		{"apple pay", "APPLEPAY"},
	})
	r := New(table)

	syms := r.Resolve(item("Apple Pay adoption accelerates in Europe", ""))
	if _, ok := findSymbol(syms, "AAPL"); ok {
		t.Errorf("bare alias matched inside longer alias span: %+v", syms)
	}
	if _, ok := findSymbol(syms, "APPLEPAY"); !ok {
		t.Errorf("longest alias not matched: %+v", syms)
	}

	// A separate bare mention still resolves the shorter alias.
	syms = r.Resolve(item("Apple Pay grows while Apple falls", ""))
	if _, ok := findSymbol(syms, "AAPL"); !ok {
		t.Errorf("bare mention outside claimed span not resolved: %+v", syms)
	}
}

func TestResolveAmbiguousAliasFirstEntryWins(t *testing.T) {
	table := NewTable([]Alias{
		{"phoenix", "PHX1"},
		{"phoenix", "PHX2"},
	})
	r := New(table)

	syms := r.Resolve(item("Phoenix announces restructuring", ""))
	if len(syms) != 1 {
		t.Fatalf("got %d symbols, want 1: %+v", len(syms), syms)
	}
	if syms[0].Instrument != "PHX1" {
		t.Errorf("instrument = %s, want PHX1 (first table entry)", syms[0].Instrument)
	}
}

func TestResolveConfidenceTiers(t *testing.T) {
	r := New(nil)

	tests := []struct {
		name       string
		headline   string
		body       string
		instrument string
		want       float64
	}{
		{"alias in headline", "Tesla recalls vehicles", "", "TSLA", 0.95},
		{"alias repeated in body", "Market roundup", "Tesla gained. Tesla also announced a factory.", "TSLA", 0.85},
		{"alias once in body", "Market roundup", "Tesla gained three percent.", "TSLA", 0.70},
		{"ticker in headline", "$NVDA rips higher", "", "NVDA", 0.90},
		{"ticker repeated in body", "Chips rally", "Watch $AVGO. Then $AVGO again, (AVGO) closed up.", "AVGO", 0.75},
		{"ticker once in body", "Chips rally", "Keep an eye on $MU today.", "MU", 0.60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syms := r.Resolve(item(tt.headline, tt.body))
			s, ok := findSymbol(syms, tt.instrument)
			if !ok {
				t.Fatalf("%s not resolved: %+v", tt.instrument, syms)
			}
			if s.Confidence != tt.want {
				t.Errorf("confidence = %v, want %v", s.Confidence, tt.want)
			}
		})
	}
}

func TestResolveTickerPatterns(t *testing.T) {
	r := New(nil)

	tests := []struct {
		text string
		want string
	}{
		{"Breakout alert $TSLA above resistance", "TSLA"},
		{"Shares of Acme (ACME) closed higher", "ACME"},
		{"NYSE: KO hits a new high", "KO"},
		{"MU shares under pressure", "MU"},
	}

	for _, tt := range tests {
		syms := r.Resolve(item(tt.text, ""))
		if _, ok := findSymbol(syms, tt.want); !ok {
			t.Errorf("text %q: %s not resolved, got %+v", tt.text, tt.want, syms)
		}
	}
}

func TestResolveExcludedWords(t *testing.T) {
	r := New(nil)

	syms := r.Resolve(item("CEO fired after SEC probe", "The IPO was pulled. GDP shares fell."))
	for _, bad := range []string{"CEO", "SEC", "IPO", "GDP"} {
		if _, ok := findSymbol(syms, bad); ok {
			t.Errorf("excluded word %s resolved as instrument", bad)
		}
	}
}

func TestResolveNoMatchIsEmpty(t *testing.T) {
	r := New(nil)

	syms := r.Resolve(item("Weather delays harvest across the midwest", "Rain continued for a third week."))
	if len(syms) != 0 {
		t.Errorf("got %+v, want no symbols", syms)
	}
}

func TestResolveOrderingDeterministic(t *testing.T) {
	r := New(nil)

	it := item("Apple and Microsoft report earnings", "Tesla was flat.")
	first := r.Resolve(it)
	for i := 0; i < 10; i++ {
		again := r.Resolve(it)
		if len(again) != len(first) {
			t.Fatalf("result length changed between runs: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("ordering changed between runs at %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}

	// Equal confidence ties are ordered by instrument.
	for i := 1; i < len(first); i++ {
		if first[i-1].Confidence == first[i].Confidence && first[i-1].Instrument > first[i].Instrument {
			t.Errorf("tie not ordered by instrument: %+v before %+v", first[i-1], first[i])
		}
	}
}

func TestResolveAliasBeatsTickerForSameInstrument(t *testing.T) {
	r := New(nil)

	// Alias in headline (0.95) outranks the ticker pattern hit (0.90).
	syms := r.Resolve(item("Tesla surges", "Traders piled into $TSLA."))
	s, ok := findSymbol(syms, "TSLA")
	if !ok {
		t.Fatalf("TSLA not resolved: %+v", syms)
	}
	if s.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", s.Confidence)
	}
	if s.MatchedAlias != "tesla" {
		t.Errorf("matched alias = %q, want %q", s.MatchedAlias, "tesla")
	}
}
