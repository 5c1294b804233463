package resolver

import (
	"regexp"
	"sort"

	"NewsEdge/internal/domain/models"
	domsvc "NewsEdge/internal/domain/service"
)

// Confidence tiers. Alias matches are the primary source; ticker patterns
// are secondary and sit one tier below.
const (
	aliasHeadlineConfidence  = 0.95
	aliasRepeatConfidence    = 0.85
	aliasBaseConfidence      = 0.70
	tickerHeadlineConfidence = 0.90
	tickerRepeatConfidence   = 0.75
	tickerBaseConfidence     = 0.60
)

var (
	dollarTickerRe   = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	exchangeTickerRe = regexp.MustCompile(`\b(?:NYSE|NASDAQ):\s?([A-Z]{1,5})\b`)
	parenTickerRe    = regexp.MustCompile(`\(([A-Z]{2,5})\)`)
	contextTickerRe  = regexp.MustCompile(`\b([A-Z]{2,5})\s+(?i:stock|shares|equity|ticker|symbol|corporation|corp|inc)\b`)
)

// excludedWords are uppercase tokens that look like tickers but never are.
var excludedWords = map[string]struct{}{
	"CEO": {}, "CFO": {}, "CTO": {}, "NYSE": {}, "NASDAQ": {}, "USD": {}, "USA": {},
	"SEC": {}, "FDA": {}, "FTC": {}, "IPO": {}, "ETF": {}, "API": {}, "AI": {}, "ML": {},
	"Q1": {}, "Q2": {}, "Q3": {}, "Q4": {}, "YOY": {}, "MOM": {}, "EBITDA": {}, "PE": {},
	"EPS": {}, "GDP": {}, "CPI": {}, "PPI": {}, "FOMC": {}, "FED": {}, "DOJ": {}, "FBI": {},
	"REIT": {}, "SPAC": {}, "ARKK": {}, "VIX": {}, "DXY": {}, "BTC": {}, "ETH": {},
	"THE": {}, "AND": {}, "FOR": {}, "ARE": {}, "BUT": {}, "NOT": {}, "YOU": {}, "ALL": {},
	"CAN": {}, "HER": {}, "WAS": {}, "ONE": {}, "OUR": {}, "OUT": {}, "DAY": {}, "GET": {},
	"HAS": {}, "HIM": {}, "HIS": {}, "HOW": {}, "ITS": {}, "MAY": {}, "NEW": {}, "NOW": {},
	"OLD": {}, "SEE": {}, "TWO": {}, "WAY": {}, "WHO": {}, "BOY": {}, "DID": {},
	"LET": {}, "PUT": {}, "SAY": {}, "SHE": {}, "TOO": {}, "USE": {}, "DAD": {},
	"BIG": {}, "FUN": {}, "SIR": {}, "YES": {},
}

// Resolver maps news text to candidate instruments.
type Resolver struct {
	table *Table
}

func New(table *Table) *Resolver {
	if table == nil {
		table = Default()
	}
	return &Resolver{table: table}
}

// Resolve returns every instrument the item plausibly concerns, ordered by
// confidence descending then instrument ascending. An empty result is the
// normal no-actionable-symbol outcome, not a failure.
func (r *Resolver) Resolve(item *models.NewsItem) []models.ExtractedSymbol {
	text := item.Text()
	headlineEnd := len(item.Headline)

	found := make(map[string]models.ExtractedSymbol)

	for instrument, hit := range r.aliasHits(text, headlineEnd) {
		conf := aliasBaseConfidence
		switch {
		case hit.inHeadline:
			conf = aliasHeadlineConfidence
		case hit.count > 1:
			conf = aliasRepeatConfidence
		}
		found[instrument] = models.ExtractedSymbol{
			Instrument:   instrument,
			Confidence:   conf,
			MatchedAlias: hit.alias,
		}
	}

	for ticker, hit := range r.tickerHits(text, headlineEnd) {
		conf := tickerBaseConfidence
		switch {
		case hit.inHeadline:
			conf = tickerHeadlineConfidence
		case hit.count > 2:
			conf = tickerRepeatConfidence
		}
		if prev, ok := found[ticker]; ok && prev.Confidence >= conf {
			continue
		}
		found[ticker] = models.ExtractedSymbol{
			Instrument:   ticker,
			Confidence:   conf,
			MatchedAlias: hit.alias,
		}
	}

	if len(found) == 0 {
		return nil
	}

	out := make([]models.ExtractedSymbol, 0, len(found))
	for _, s := range found {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Instrument < out[j].Instrument
	})
	return out
}

type hit struct {
	alias      string
	count      int
	inHeadline bool
}

// aliasHits scans the table longest alias first. Spans consumed by a longer
// alias are claimed so shorter aliases cannot re-match inside them.
func (r *Resolver) aliasHits(text string, headlineEnd int) map[string]hit {
	hits := make(map[string]hit)
	var claimed [][]int

	for _, e := range r.table.entries {
		locs := e.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		count := 0
		inHeadline := false
		for _, loc := range locs {
			if overlapsAny(claimed, loc) {
				continue
			}
			claimed = append(claimed, loc)
			count++
			if loc[0] < headlineEnd {
				inHeadline = true
			}
		}
		if count == 0 {
			continue
		}
		h := hits[e.instrument]
		if h.alias == "" {
			h.alias = e.name
		}
		h.count += count
		h.inHeadline = h.inHeadline || inHeadline
		hits[e.instrument] = h
	}
	return hits
}

// tickerHits scans for explicit ticker-like tokens: $AAPL, NYSE: AAPL,
// (AAPL), and "AAPL shares" style mentions.
func (r *Resolver) tickerHits(text string, headlineEnd int) map[string]hit {
	hits := make(map[string]hit)

	add := func(token string, start int, filtered bool) {
		if filtered {
			if _, excluded := excludedWords[token]; excluded {
				return
			}
		}
		h := hits[token]
		if h.alias == "" {
			h.alias = token
		}
		h.count++
		if start < headlineEnd {
			h.inHeadline = true
		}
		hits[token] = h
	}

	for _, m := range dollarTickerRe.FindAllStringSubmatchIndex(text, -1) {
		add(text[m[2]:m[3]], m[0], false)
	}
	for _, m := range exchangeTickerRe.FindAllStringSubmatchIndex(text, -1) {
		add(text[m[2]:m[3]], m[0], false)
	}
	for _, m := range parenTickerRe.FindAllStringSubmatchIndex(text, -1) {
		add(text[m[2]:m[3]], m[0], true)
	}
	for _, m := range contextTickerRe.FindAllStringSubmatchIndex(text, -1) {
		add(text[m[2]:m[3]], m[0], true)
	}
	return hits
}

func overlapsAny(claimed [][]int, loc []int) bool {
	for _, c := range claimed {
		if loc[0] < c[1] && c[0] < loc[1] {
			return true
		}
	}
	return false
}

var _ domsvc.SymbolResolver = (*Resolver)(nil)
