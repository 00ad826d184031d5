package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

const (
	productHeader = "X-Product"

	maxUploadBytes   = 16 << 20
	maxFeedbackChars = 2000
	maxAnswerChars   = 4000
)

// DocumentImporter turns uploaded PDFs and fetched pages into entries.
// Nil when no extraction backend is configured.
type DocumentImporter interface {
	ImportPDF(ctx context.Context, data []byte) ([]domain.KnowledgeEntry, error)
	ImportURL(ctx context.Context, url string) ([]domain.KnowledgeEntry, error)
}

// FileDecoder decodes an uploaded tabular file into entries.
type FileDecoder func(data []byte) ([]domain.KnowledgeEntry, error)

// IntentReloader re-reads the safety rule set from disk.
type IntentReloader interface {
	Reload() error
}

type Options struct {
	RateLimitRPS      int
	RateLimitBurst    int
	MaxConcurrent     int
	BackpressureWait  time.Duration
	MetricsHandler    http.Handler
	MetricsMiddleware func(next http.Handler) http.Handler
	Health            Health
}

// Health describes what the deployment has wired so operators can see
// a degraded (lexical-only) instance at a glance.
type Health struct {
	GeneratorReady bool
	EmbedderReady  bool
	EntryCount     func() int
}

type Router struct {
	chat       ports.ChatService
	admin      ports.KnowledgeAdmin
	audit      ports.AuditLog
	documents  DocumentImporter
	intents    IntentReloader
	decodeAuto FileDecoder
	decodeXLSX FileDecoder
	options    Options
}

func NewRouter(
	chat ports.ChatService,
	admin ports.KnowledgeAdmin,
	audit ports.AuditLog,
	documents DocumentImporter,
	intents IntentReloader,
	decodeAuto FileDecoder,
	decodeXLSX FileDecoder,
	options Options,
) *Router {
	return &Router{
		chat:       chat,
		admin:      admin,
		audit:      audit,
		documents:  documents,
		intents:    intents,
		decodeAuto: decodeAuto,
		decodeXLSX: decodeXLSX,
		options:    options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatAnswer)
	mux.HandleFunc("/v1/chat/stream", rt.chatStream)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/entries", rt.entries)
	mux.HandleFunc("/v1/entries/import", rt.importTabular)
	mux.HandleFunc("/v1/entries/import/xlsx", rt.importXLSX)
	mux.HandleFunc("/v1/entries/import/pdf", rt.importPDF)
	mux.HandleFunc("/v1/entries/import/url", rt.importURL)
	mux.HandleFunc("/v1/feedback", rt.feedback)
	mux.HandleFunc("/admin/reload-intents", rt.reloadIntents)
	if rt.options.MetricsHandler != nil {
		mux.Handle("/metrics", rt.options.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxConcurrent, rt.options.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	if rt.options.MetricsMiddleware != nil {
		handler = rt.options.MetricsMiddleware(handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"generator": rt.options.Health.GeneratorReady,
		"embedder":  rt.options.Health.EmbedderReady,
	}
	if rt.options.Health.EntryCount != nil {
		payload["entries"] = rt.options.Health.EntryCount()
	}
	writeJSON(w, http.StatusOK, payload)
}

type chatBody struct {
	Message string `json:"message"`
	K       int    `json:"k"`
}

func (rt *Router) chatAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	answer, err := rt.chat.Answer(r.Context(), rt.chatRequest(r, body))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if err := rt.chat.Stream(r.Context(), rt.chatRequest(r, body), sse.Emit); err != nil {
		// The stream already carries its own error event for pipeline
		// failures; this catches transport-level emit errors.
		_ = sse.Emit(domain.ErrorEvent("stream aborted", err.Error()))
	}
}

func (rt *Router) chatRequest(r *http.Request, body chatBody) domain.ChatRequest {
	caller := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		caller = host
	}
	return domain.ChatRequest{
		Message:   body.Message,
		K:         body.K,
		Product:   strings.TrimSpace(r.Header.Get(productHeader)),
		Caller:    caller,
		UserAgent: r.UserAgent(),
	}
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query().Get("q")
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))

	candidates, err := rt.chat.Search(r.Context(), query, k)
	if err != nil {
		writeError(w, err)
		return
	}

	type result struct {
		ID    string  `json:"id"`
		Title string  `json:"title"`
		Score float64 `json:"score"`
		Mode  string  `json:"mode"`
	}
	results := make([]result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, result{ID: c.Entry.ID, Title: c.Entry.Title, Score: c.Score, Mode: string(c.Mode)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) entries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := rt.admin.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": entries})
	case http.MethodPut:
		var entries []domain.KnowledgeEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected a json array of entries"})
			return
		}
		rt.replaceEntries(w, r, entries)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) importTabular(w http.ResponseWriter, r *http.Request) {
	rt.importFile(w, r, rt.decodeAuto)
}

func (rt *Router) importXLSX(w http.ResponseWriter, r *http.Request) {
	rt.importFile(w, r, rt.decodeXLSX)
}

func (rt *Router) importFile(w http.ResponseWriter, r *http.Request, decode FileDecoder) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}
	entries, err := decode(data)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.replaceEntries(w, r, entries)
}

func (rt *Router) importPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.documents == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document extraction is not configured"})
		return
	}
	data, ok := rt.readUpload(w, r)
	if !ok {
		return
	}
	entries, err := rt.documents.ImportPDF(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.replaceEntries(w, r, entries)
}

func (rt *Router) importURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.documents == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document extraction is not configured"})
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	entries, err := rt.documents.ImportURL(r.Context(), body.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.replaceEntries(w, r, entries)
}

func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read upload"})
		return nil, false
	}
	return data, true
}

func (rt *Router) replaceEntries(w http.ResponseWriter, r *http.Request, entries []domain.KnowledgeEntry) {
	appendOnly := r.URL.Query().Get("append") == "true"
	count, err := rt.admin.Replace(r.Context(), entries, appendOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": count})
}

func (rt *Router) feedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var body struct {
		Message string `json:"message"`
		Answer  string `json:"answer"`
		Vote    string `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	vote := domain.FeedbackVote(strings.ToLower(strings.TrimSpace(body.Vote)))
	if vote != domain.VoteUp && vote != domain.VoteDown {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vote"})
		return
	}

	rec := domain.FeedbackRecord{
		At:      time.Now().UTC(),
		Vote:    vote,
		Message: clip(body.Message, maxFeedbackChars),
		Answer:  clip(body.Answer, maxAnswerChars),
	}
	if err := rt.audit.AppendFeedback(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) reloadIntents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if rt.intents == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "intent rules are not configured"})
		return
	}
	if err := rt.intents.Reload(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
