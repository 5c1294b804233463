package resolver

import (
	"regexp"
	"sort"
	"strings"

	"NewsEdge/internal/domain/models"
)

// Alias maps one company or product name to an instrument.
type Alias struct {
	Name       string
	Instrument string
}

// Table is the immutable alias lookup used by the resolver. Entries are
// matched longest name first so a text span covered by a longer known alias
// never matches a shorter one. Table order is priority order: when the same
// name appears twice, the earliest entry wins and later ones are dropped.
type Table struct {
	entries []entry
}

type entry struct {
	name       string
	instrument string
	re         *regexp.Regexp
}

// NewTable normalizes, de-duplicates, and orders aliases for matching.
func NewTable(aliases []Alias) *Table {
	seen := make(map[string]struct{}, len(aliases))
	entries := make([]entry, 0, len(aliases))
	for _, a := range aliases {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		entries = append(entries, entry{
			name:       name,
			instrument: models.NormalizeInstrument(a.Instrument),
			re:         compileAlias(name),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].name) > len(entries[j].name)
	})
	return &Table{entries: entries}
}

// compileAlias builds a case-insensitive whole-word matcher for one alias.
func compileAlias(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// Default returns the curated table of company and index names.
func Default() *Table { return NewTable(defaultAliases) }

var defaultAliases = []Alias{
	// Tech
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"alphabet", "GOOGL"},
	{"amazon", "AMZN"},
	{"meta", "META"},
	{"facebook", "META"},
	{"tesla", "TSLA"},
	{"nvidia", "NVDA"},
	{"netflix", "NFLX"},
	{"amd", "AMD"},
	{"intel", "INTC"},
	{"qualcomm", "QCOM"},
	{"broadcom", "AVGO"},
	{"oracle", "ORCL"},
	{"salesforce", "CRM"},
	{"adobe", "ADBE"},
	{"servicenow", "NOW"},
	{"snowflake", "SNOW"},
	{"palantir", "PLTR"},
	{"airbnb", "ABNB"},
	{"uber", "UBER"},
	{"lyft", "LYFT"},
	{"doordash", "DASH"},

	// Finance
	{"jpmorgan", "JPM"},
	{"jp morgan", "JPM"},
	{"goldman sachs", "GS"},
	{"morgan stanley", "MS"},
	{"bank of america", "BAC"},
	{"wells fargo", "WFC"},
	{"citigroup", "C"},
	{"coinbase", "COIN"},
	{"robinhood", "HOOD"},
	{"square", "SQ"},
	{"block", "SQ"},
	{"paypal", "PYPL"},
	{"visa", "V"},
	{"mastercard", "MA"},

	// Retail and consumer
	{"walmart", "WMT"},
	{"target", "TGT"},
	{"costco", "COST"},
	{"home depot", "HD"},
	{"lowe's", "LOW"},
	{"nike", "NKE"},
	{"starbucks", "SBUX"},
	{"mcdonald's", "MCD"},
	{"chipotle", "CMG"},
	{"shopify", "SHOP"},

	// Healthcare and pharma
	{"pfizer", "PFE"},
	{"moderna", "MRNA"},
	{"johnson & johnson", "JNJ"},
	{"merck", "MRK"},
	{"abbvie", "ABBV"},
	{"eli lilly", "LLY"},
	{"unitedhealth", "UNH"},

	// Energy
	{"exxon", "XOM"},
	{"chevron", "CVX"},
	{"conocophillips", "COP"},
	{"schlumberger", "SLB"},

	// Entertainment
	{"disney", "DIS"},
	{"comcast", "CMCSA"},
	{"warner bros", "WBD"},
	{"paramount", "PARA"},
	{"spotify", "SPOT"},

	// Automotive
	{"ford", "F"},
	{"general motors", "GM"},
	{"gm", "GM"},
	{"lucid", "LCID"},
	{"rivian", "RIVN"},
	{"nio", "NIO"},

	// Aerospace
	{"boeing", "BA"},
	{"lockheed martin", "LMT"},
	{"raytheon", "RTX"},

	// Indices
	{"s&p 500", "SPY"},
	{"s&p", "SPY"},
	{"nasdaq", "QQQ"},
	{"dow jones", "DIA"},
	{"dow", "DIA"},
}
