package ingest

// Record is one extracted product candidate: internal field name -> raw
// string value. Both the XML walker and the affiliate API sync produce
// records, so the upsert engine is shared.
type Record map[string]string

// Summary is the outcome of one import run
type Summary struct {
	LogID     string
	Status    string
	Processed int
	Created   int
	Updated   int
	Errors    []string // full list; callers surface the first maxSurfacedErrors
}

// MaxSurfacedErrors bounds the error list returned to API callers. The full
// list is persisted on the import log.
const MaxSurfacedErrors = 10

// SurfacedErrors returns the first MaxSurfacedErrors errors of the run
func (s *Summary) SurfacedErrors() []string {
	if len(s.Errors) <= MaxSurfacedErrors {
		return s.Errors
	}
	return s.Errors[:MaxSurfacedErrors]
}

// Options controls one processing run
type Options struct {
	MarketCode          string
	ImportType          string
	FeedID              *string
	NetworkID           *string
	DefaultShopName     string
	AffiliateTemplate   string
	CategoryMapping     map[string]string // raw token -> category id, from the stored mapping
	CategoryFilter      string
	ProductsPerCategory int
	MaxProducts         int
}
