package domain

type RetrievalMode string

const (
	ModeLexical  RetrievalMode = "lexical"
	ModeSemantic RetrievalMode = "semantic"
)

// Candidate is a scored retrieval hit. Candidates live only for the
// duration of one query.
type Candidate struct {
	Entry KnowledgeEntry
	Score float64
	Mode  RetrievalMode
}

type Source struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type Answer struct {
	Text        string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	Sources     []Source `json:"sources"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ChatRequest carries one inbound user message plus the transport
// context the safety pipeline records in audit entries.
type ChatRequest struct {
	Message   string
	K         int
	Product   string
	Caller    string
	UserAgent string
}
