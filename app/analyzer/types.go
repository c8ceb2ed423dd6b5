package analyzer

// Result is the structure analysis of one fetched feed, shaped for operator
// review
type Result struct {
	IsValid          bool              `json:"isValid"`
	Warnings         []string          `json:"warnings"`
	DetectedFields   []string          `json:"detectedFields"`
	SuggestedMapping map[string]string `json:"suggestedMapping"`
	CategoryMapping  map[string]string `json:"categoryMapping"`
	FeedOverview     Overview          `json:"feedOverview"`
	SampleProductXML string            `json:"sampleProductXml"`
	SampleRawXML     string            `json:"sampleRawXml"`
}

type Overview struct {
	RootElement    string            `json:"rootElement"`
	Namespaces     map[string]string `json:"namespaces"`
	ProductElement string            `json:"productElement"`
	ProductCount   int               `json:"productCount"`
}

// Block is one repeating product element extracted from the raw feed
type Block struct {
	Tags   []string          // distinct child tag names in document order
	Values map[string]string // lowercased, namespace-stripped tag -> first text value
	Raw    string            // raw XML of the block
}
