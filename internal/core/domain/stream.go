package domain

// StreamEventKind tags the variants of the streaming answer protocol.
// A stream carries zero or more token events, exactly one meta event,
// and exactly one terminal event (done or error).
type StreamEventKind string

const (
	EventToken StreamEventKind = "token"
	EventMeta  StreamEventKind = "meta"
	EventDone  StreamEventKind = "done"
	EventError StreamEventKind = "error"
)

type StreamEvent struct {
	Kind  StreamEventKind
	Token string
	Meta  *Meta
	Done  *Done
	Err   *StreamError
}

// Meta carries per-answer observability for the client: retrieval
// confidence, the top sources, and optional topic suggestions.
type Meta struct {
	Confidence  float64  `json:"confidence"`
	Sources     []Source `json:"sources"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Done carries the authoritative, fully sanitized answer. It may
// differ from the concatenation of the token events.
type Done struct {
	Text string `json:"text"`
}

type StreamError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func TokenEvent(token string) StreamEvent {
	return StreamEvent{Kind: EventToken, Token: token}
}

func MetaEvent(meta Meta) StreamEvent {
	return StreamEvent{Kind: EventMeta, Meta: &meta}
}

func DoneEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventDone, Done: &Done{Text: text}}
}

func ErrorEvent(message, detail string) StreamEvent {
	return StreamEvent{Kind: EventError, Err: &StreamError{Message: message, Detail: detail}}
}
