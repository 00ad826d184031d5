package domain

import "time"

// AdverseRecord is one positive adverse-event determination. Exactly
// one record is appended per request that terminates urgently.
type AdverseRecord struct {
	At         time.Time
	Caller     string
	UserAgent  string
	Message    string // redacted before it reaches the sink
	Confidence float64
	ReasonTag  string
}

type FeedbackVote string

const (
	VoteUp   FeedbackVote = "up"
	VoteDown FeedbackVote = "down"
)

type FeedbackRecord struct {
	At      time.Time
	Vote    FeedbackVote
	Message string
	Answer  string
}
