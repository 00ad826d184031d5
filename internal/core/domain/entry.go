package domain

import "strings"

// KnowledgeEntry is one question/answer record in the knowledge base.
// The core only ever sees immutable snapshots: edits replace the whole
// list, never a single entry in place.
type KnowledgeEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags"`
}

// IndexText is the document text retrieval indices are built from.
func (e KnowledgeEntry) IndexText() string {
	return strings.Join([]string{e.Title, e.Question, e.Answer, strings.Join(e.Tags, " ")}, "\n")
}
