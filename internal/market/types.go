// Package market fetches comparable-sales data and decides when fetching is
// worth paying for. The scheduler guarantees at most one pending deferred
// lookup per analysis session and merges artist-scoped results over earlier
// broader ones.
package market

type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ExceptionalSale struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	SoldAt   string  `json:"sold_at"`
}

type Historical struct {
	AnalyzedSales int `json:"analyzed_sales"`
	TotalMatches  int `json:"total_matches"`
}

type MarketActivity struct {
	ReservesMetPercentage float64 `json:"reserves_met_percentage"`
}

type Live struct {
	AnalyzedLiveItems int            `json:"analyzed_live_items"`
	MarketActivity    MarketActivity `json:"market_activity"`
}

// Snapshot is the result of comparing an item against historical and live
// comparable sales. A snapshot without comparable data is still a valid
// result; callers branch on HasComparableData, never on errors.
type Snapshot struct {
	HasComparableData bool              `json:"has_comparable_data"`
	PriceRange        *PriceRange       `json:"price_range"`
	Confidence        float64           `json:"confidence"`
	Historical        Historical        `json:"historical"`
	Live              Live              `json:"live"`
	Insights          []Insight         `json:"insights"`
	ExceptionalSales  []ExceptionalSale `json:"exceptional_sales,omitempty"`
	DataSource        string            `json:"data_source"`
}

// Lookup sources, ordered from broadest to most precise.
const (
	LookupFreetext = "freetext"
	LookupExtended = "extended"
	LookupArtist   = "artist"
)

// NoDataSnapshot is the explicit "no comparable data" result used wherever a
// lookup failed or found nothing.
func NoDataSnapshot(source string) Snapshot {
	return Snapshot{
		HasComparableData: false,
		DataSource:        source,
		Insights: []Insight{{
			Type:    "no_data",
			Message: "No comparable sales data found for this query.",
		}},
	}
}

// PlaceholderSnapshot stands in for a deferred lookup so the UI layer can
// show a trigger affordance before any market call has been made.
func PlaceholderSnapshot() Snapshot {
	return Snapshot{
		HasComparableData: false,
		DataSource:        "deferred",
		Insights: []Insight{{
			Type:    "deferred",
			Message: "Market comparison not yet loaded. Open the market dashboard to run it.",
		}},
	}
}
