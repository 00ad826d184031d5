package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

const (
	defaultTopK       = 8
	generateScoreMin  = 0.05
	policyIntentScore = 0.5
	crisisIntentScore = 0.5
)

// Terminal states of the answer pipeline. Every request reaches
// exactly one.
const (
	TerminalWelcome   = "welcome"
	TerminalUrgent    = "urgent"
	TerminalPolicy    = "policy"
	TerminalGenerated = "generated"
	TerminalFallback  = "fallback"
	TerminalError     = "error"
)

var (
	greetingRe       = regexp.MustCompile(`(?i)^(hi|hello|hey|yo|hola|h?eyy?\b|good\s*(morning|afternoon|evening)|\bhelp\b|\bstart\b)[!.\s]*$`)
	policyFallbackRe = regexp.MustCompile(`(?i)(\blost\b|\brecover\b|\bdeleted?\b)`)
	topicKeywordRe   = regexp.MustCompile(`(?i)\b(delete|deletion|retain|retention|upload|file|files|document)\b`)
)

const notFoundReply = "I couldn't find this in the knowledge base. Here are related topics you can check."

const streamInstruction = `You are a helpful, friendly FAQ assistant. Answer ONLY using the provided knowledge base. Be concise and human-like.
If the answer is not present or unclear in the knowledge base, say you're not sure.
Do NOT include a 'Related topics' or 'You might also ask' section in your text; the UI will surface suggestions separately.
Do NOT include references like 'FAQ #1' or numbered FAQ references, and do NOT include bracket citations like [#1] or [1] in the answer text.
However, if the knowledge base contains file retention or deletion policies (e.g., files are kept for a limited time, can be deleted by users, or cannot be recovered after deletion), state those policies clearly and DO NOT say you're unsure.`

const answerInstruction = `You are a helpful, friendly FAQ assistant. Answer ONLY using the provided knowledge base. Be concise and human-like.

Format your answer with:
- A one-line summary
- 2-5 bullet points of key details
- A short tip or next step when relevant

If the answer is not present, say you don't find it and propose the closest relevant FAQs. Keep it under 120 words.`

// SafetyClassifier is what the pipeline needs from the safety stage.
type SafetyClassifier interface {
	ClassifyIntent(text, product string) domain.IntentResult
	DetectAdverse(ctx context.Context, message string) domain.ClassificationResult
}

// PipelineObserver receives pipeline milestones for metrics. All
// methods must be non-blocking.
type PipelineObserver interface {
	RetrievalDone(candidates int, elapsed time.Duration)
	AdverseDetected(reason string)
	TerminalReached(state string)
}

type noopObserver struct{}

func (noopObserver) RetrievalDone(int, time.Duration) {}
func (noopObserver) AdverseDetected(string)           {}
func (noopObserver) TerminalReached(string)           {}

// ChatUseCase orchestrates retrieval, safety classification, policy
// synthesis and generation into the streaming answer protocol.
type ChatUseCase struct {
	catalog        *Catalog
	classifier     SafetyClassifier
	generator      ports.Generator
	audit          ports.AuditLog
	logger         *slog.Logger
	observer       PipelineObserver
	supportContact string
	topK           int
}

func NewChatUseCase(catalog *Catalog, classifier SafetyClassifier, generator ports.Generator, audit ports.AuditLog, supportContact string, topK int, observer PipelineObserver, logger *slog.Logger) *ChatUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if supportContact == "" {
		supportContact = "our support team"
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	return &ChatUseCase{
		catalog:        catalog,
		classifier:     classifier,
		generator:      generator,
		audit:          audit,
		logger:         logger,
		observer:       observer,
		supportContact: supportContact,
		topK:           topK,
	}
}

func (uc *ChatUseCase) urgentReply() string {
	return "This may be an adverse event. Please contact " + uc.supportContact +
		" immediately. We have logged your report for review. If safe, include details like what happened, when, and any symptoms."
}

func (uc *ChatUseCase) welcomeReply() (string, []string) {
	suggestions := uc.catalog.TitleSuggestions(3)
	bullets := "- Billing\n- Account\n- Files & Security"
	if len(suggestions) > 0 {
		lines := make([]string, len(suggestions))
		for i, t := range suggestions {
			lines[i] = "- " + t
		}
		bullets = strings.Join(lines, "\n")
	}
	reply := "Hi! I'm your FAQ assistant. What would you like to know?\n\nHere are some topics you can ask about:\n" + bullets
	return reply, suggestions
}

// Stream runs the pipeline and emits the event sequence through emit.
// Emission order is tokens, one meta, one terminal. An emit error
// aborts immediately: the consumer has gone away.
func (uc *ChatUseCase) Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.WrapError(domain.ErrInvalidInput, "chat stream", fmt.Errorf("message is required"))
	}

	// Greeting gate.
	if isGreeting(message) {
		reply, suggestions := uc.welcomeReply()
		uc.observer.TerminalReached(TerminalWelcome)
		return emitAll(emit,
			domain.TokenEvent(reply),
			domain.MetaEvent(domain.Meta{Confidence: 0, Sources: []domain.Source{}, Suggestions: suggestions}),
			domain.DoneEvent(reply),
		)
	}

	// Safety: crisis intents first, heuristic detector as fallback.
	intent := uc.classifier.ClassifyIntent(message, req.Product)
	cls := uc.adverseVerdict(ctx, message, intent)
	if cls.IsAdverse {
		if err := uc.recordAdverse(ctx, req, cls); err != nil {
			return err
		}
		uc.observer.AdverseDetected(cls.ReasonTag)
		uc.observer.TerminalReached(TerminalUrgent)
		urgent := uc.urgentReply()
		return emitAll(emit,
			domain.TokenEvent(urgent),
			domain.MetaEvent(domain.Meta{Confidence: max(0.8, cls.Confidence), Sources: []domain.Source{}}),
			domain.DoneEvent(urgent),
		)
	}

	// Retrieval.
	k := req.K
	if k <= 0 {
		k = uc.topK
	}
	started := time.Now()
	candidates := uc.catalog.Retrieve(ctx, message, k)
	uc.observer.RetrievalDone(len(candidates), time.Since(started))
	uc.logger.Info("retrieval done", "k", k, "got", len(candidates), "ms", time.Since(started).Milliseconds())
	meta := uc.buildMeta(candidates)

	// Deterministic policy answer.
	if uc.policyTriggered(message, intent) {
		if policy := synthesizePolicyAnswer(message, candidates); policy != "" {
			clean := sanitizeAnswer(policy)
			uc.observer.TerminalReached(TerminalPolicy)
			return emitAll(emit,
				domain.TokenEvent(clean),
				domain.MetaEvent(meta),
				domain.DoneEvent(clean),
			)
		}
	}

	// Generation.
	if uc.generator != nil && len(candidates) > 0 && candidates[0].Score > generateScoreMin {
		return uc.streamGenerated(ctx, message, candidates, meta, emit)
	}

	// Fallback: best stored answer verbatim, or not-found.
	return uc.streamFallback(ctx, message, candidates, meta, emit)
}

// Answer is the buffered equivalent of Stream for the non-streaming
// endpoint.
func (uc *ChatUseCase) Answer(ctx context.Context, req domain.ChatRequest) (domain.Answer, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return domain.Answer{}, domain.WrapError(domain.ErrInvalidInput, "chat answer", fmt.Errorf("message is required"))
	}

	if isGreeting(message) {
		reply, suggestions := uc.welcomeReply()
		uc.observer.TerminalReached(TerminalWelcome)
		return domain.Answer{Text: reply, Confidence: 0, Sources: []domain.Source{}, Suggestions: suggestions}, nil
	}

	intent := uc.classifier.ClassifyIntent(message, req.Product)
	cls := uc.adverseVerdict(ctx, message, intent)
	if cls.IsAdverse {
		if err := uc.recordAdverse(ctx, req, cls); err != nil {
			return domain.Answer{}, err
		}
		uc.observer.AdverseDetected(cls.ReasonTag)
		uc.observer.TerminalReached(TerminalUrgent)
		return domain.Answer{Text: uc.urgentReply(), Confidence: max(0.8, cls.Confidence), Sources: []domain.Source{}}, nil
	}

	k := req.K
	if k <= 0 {
		k = uc.topK
	}
	started := time.Now()
	candidates := uc.catalog.Retrieve(ctx, message, k)
	uc.observer.RetrievalDone(len(candidates), time.Since(started))
	meta := uc.buildMeta(candidates)

	if uc.policyTriggered(message, intent) {
		if policy := synthesizePolicyAnswer(message, candidates); policy != "" {
			uc.observer.TerminalReached(TerminalPolicy)
			return domain.Answer{Text: sanitizeAnswer(policy), Confidence: meta.Confidence, Sources: meta.Sources, Suggestions: meta.Suggestions}, nil
		}
	}

	var text string
	if uc.generator != nil && len(candidates) > 0 && candidates[0].Score > generateScoreMin {
		generated, err := uc.generator.Generate(ctx, answerInstruction, buildPrompt(message, candidates))
		if err != nil {
			uc.logger.Warn("generation failed, serving stored answer", "error", err)
		}
		text = strings.TrimSpace(generated)
		if text == "" {
			text = candidates[0].Entry.Answer
		}
		uc.observer.TerminalReached(TerminalGenerated)
	} else if len(candidates) > 0 && candidates[0].Score > generateScoreMin {
		text = candidates[0].Entry.Answer
		uc.observer.TerminalReached(TerminalFallback)
	} else {
		text = notFoundReply
		if err := uc.audit.AppendUnanswered(ctx, message); err != nil {
			return domain.Answer{}, domain.WrapError(domain.ErrTemporary, "unanswered log", err)
		}
		uc.observer.TerminalReached(TerminalFallback)
	}

	return domain.Answer{
		Text:        sanitizeAnswer(text),
		Confidence:  meta.Confidence,
		Sources:     meta.Sources,
		Suggestions: meta.Suggestions,
	}, nil
}

// Search exposes raw hybrid retrieval.
func (uc *ChatUseCase) Search(ctx context.Context, query string, k int) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	if k <= 0 {
		k = uc.topK
	}
	return uc.catalog.Retrieve(ctx, query, k), nil
}

func (uc *ChatUseCase) adverseVerdict(ctx context.Context, message string, intent domain.IntentResult) domain.ClassificationResult {
	if intent.IsCrisis() && intent.Score >= crisisIntentScore {
		return domain.ClassificationResult{IsAdverse: true, Confidence: intent.Score, ReasonTag: intent.Label}
	}
	return uc.classifier.DetectAdverse(ctx, message)
}

// recordAdverse appends the audit record. The safety-logging guarantee
// makes a failed append fatal for the request.
func (uc *ChatUseCase) recordAdverse(ctx context.Context, req domain.ChatRequest, cls domain.ClassificationResult) error {
	rec := domain.AdverseRecord{
		At:         time.Now().UTC(),
		Caller:     req.Caller,
		UserAgent:  truncate(collapseSpaces(req.UserAgent), 200),
		Message:    redactMessage(req.Message),
		Confidence: cls.Confidence,
		ReasonTag:  cls.ReasonTag,
	}
	if err := uc.audit.AppendAdverse(ctx, rec); err != nil {
		return domain.WrapError(domain.ErrTemporary, "adverse audit", err)
	}
	uc.logger.Warn("adverse event detected", "reason", cls.ReasonTag, "confidence", cls.Confidence)
	return nil
}

func (uc *ChatUseCase) policyTriggered(message string, intent domain.IntentResult) bool {
	if intent.Label == domain.IntentFileRecovery && intent.Score >= policyIntentScore {
		return true
	}
	return policyFallbackRe.MatchString(message)
}

func (uc *ChatUseCase) buildMeta(candidates []domain.Candidate) domain.Meta {
	meta := domain.Meta{Sources: []domain.Source{}}
	if len(candidates) > 0 {
		meta.Confidence = round3(candidates[0].Score)
	}
	for _, c := range candidates {
		meta.Sources = append(meta.Sources, domain.Source{ID: c.Entry.ID, Title: c.Entry.Title, Score: round3(c.Score)})
		if len(meta.Sources) == 3 {
			break
		}
	}
	if len(meta.Sources) == 0 {
		var suggestions []string
		for _, title := range uc.catalog.TitleSuggestions(0) {
			if topicKeywordRe.MatchString(title) {
				suggestions = append(suggestions, title)
				if len(suggestions) == 3 {
					break
				}
			}
		}
		meta.Suggestions = suggestions
	}
	return meta
}

func (uc *ChatUseCase) streamGenerated(ctx context.Context, message string, candidates []domain.Candidate, meta domain.Meta, emit func(domain.StreamEvent) error) error {
	prompt := buildPrompt(message, candidates)
	var full strings.Builder
	err := uc.generator.GenerateStream(ctx, streamInstruction, prompt, func(chunk string) error {
		sanitized := sanitizeToken(chunk)
		if sanitized == "" {
			return nil
		}
		full.WriteString(sanitized)
		return emit(domain.TokenEvent(sanitized))
	})
	if err == nil {
		clean := sanitizeAnswer(full.String())
		uc.observer.TerminalReached(TerminalGenerated)
		return emitAll(emit, domain.MetaEvent(meta), domain.DoneEvent(clean))
	}

	if domain.IsKind(err, domain.ErrQuotaExceeded) {
		fallback := candidates[0].Entry.Answer
		if fallback == "" {
			fallback = "I'm not sure based on the knowledge base."
		}
		clean := sanitizeAnswer(fallback)
		uc.logger.Warn("generation quota exhausted, serving stored answer")
		uc.observer.TerminalReached(TerminalFallback)
		return emitAll(emit,
			domain.TokenEvent(clean),
			domain.MetaEvent(meta),
			domain.DoneEvent(clean),
		)
	}

	uc.logger.Error("generation stream failed", "error", err)
	uc.observer.TerminalReached(TerminalError)
	return emit(domain.ErrorEvent("streaming failed", err.Error()))
}

func (uc *ChatUseCase) streamFallback(ctx context.Context, message string, candidates []domain.Candidate, meta domain.Meta, emit func(domain.StreamEvent) error) error {
	var text string
	if len(candidates) > 0 && candidates[0].Score > generateScoreMin {
		text = candidates[0].Entry.Answer
	} else {
		text = notFoundReply
		if err := uc.audit.AppendUnanswered(ctx, message); err != nil {
			return domain.WrapError(domain.ErrTemporary, "unanswered log", err)
		}
	}
	clean := sanitizeAnswer(text)
	uc.observer.TerminalReached(TerminalFallback)
	return emitAll(emit,
		domain.TokenEvent(clean),
		domain.MetaEvent(meta),
		domain.DoneEvent(clean),
	)
}

func buildPrompt(message string, candidates []domain.Candidate) string {
	limit := len(candidates)
	if limit > defaultTopK {
		limit = defaultTopK
	}
	blocks := make([]string, 0, limit)
	for i, c := range candidates[:limit] {
		blocks = append(blocks, fmt.Sprintf("[#%d] Title: %s\nQ: %s\nA: %s", i+1, c.Entry.Title, c.Entry.Question, c.Entry.Answer))
	}
	return fmt.Sprintf("Knowledge Base:\n%s\n\nUser question: %s\n\nFinal helpful answer:", strings.Join(blocks, "\n\n"), message)
}

func isGreeting(message string) bool {
	return greetingRe.MatchString(message) || len(tokenize(message)) <= 2
}

func emitAll(emit func(domain.StreamEvent) error, events ...domain.StreamEvent) error {
	for _, ev := range events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

var digitRunRe = regexp.MustCompile(`\d{6,}`)

// redactMessage masks long digit runs (phone, account, card numbers)
// before the message hits the audit sink.
func redactMessage(message string) string {
	return truncate(digitRunRe.ReplaceAllString(collapseSpaces(message), "******"), 2000)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

