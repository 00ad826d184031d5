package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/infrastructure/resilience"
)

// Client talks to the Gemini REST API. One Client is shared by the
// Embedder, Generator, Confirmer and Extractor adapters.
type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, genModel, embedModel string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func buildGenerateRequest(instruction, prompt string) generateRequest {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if instruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: instruction}}}
	}
	return req
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.client.genModel)
	var response generateResponse
	err := g.client.executor.Execute(ctx, "gemini.generate", func(ctx context.Context) error {
		return g.client.postJSON(ctx, path, buildGenerateRequest(instruction, prompt), &response, "generate")
	}, classifyGeminiError)
	if err != nil {
		return "", wrapGeminiError("generate", err)
	}
	return strings.TrimSpace(response.text()), nil
}

// GenerateStream consumes the SSE variant of generateContent and
// forwards each text fragment to emit. The stream is never retried:
// fragments may already have reached the consumer.
func (g *Generator) GenerateStream(ctx context.Context, instruction, prompt string, emit func(token string) error) error {
	path := fmt.Sprintf("/v1beta/models/%s:streamGenerateContent", g.client.genModel)
	err := g.client.postSSE(ctx, path, buildGenerateRequest(instruction, prompt), "generate stream", func(data []byte) error {
		var chunk generateResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if text := chunk.text(); text != "" {
			return emit(text)
		}
		return nil
	})
	return wrapGeminiError("generate stream", err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

type embedContentRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	requests := make([]embedContentRequest, len(texts))
	for i, text := range texts {
		requests[i] = embedContentRequest{
			Model:   "models/" + e.client.embedModel,
			Content: content{Parts: []part{{Text: text}}},
		}
	}

	path := fmt.Sprintf("/v1beta/models/%s:batchEmbedContents", e.client.embedModel)
	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}
	err := e.client.executor.Execute(ctx, "gemini.embed", func(ctx context.Context) error {
		return e.client.postJSON(ctx, path, map[string]any{"requests": requests}, &response, "embed")
	}, classifyGeminiError)
	if err != nil {
		return nil, wrapGeminiError("embed", err)
	}

	vectors := make([][]float32, len(response.Embeddings))
	for i, emb := range response.Embeddings {
		vectors[i] = emb.Values
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Confirmer asks the model for a second opinion on adverse intent with
// a strict JSON contract.
type Confirmer struct {
	client *Client
}

func NewConfirmer(client *Client) *Confirmer {
	return &Confirmer{client: client}
}

const confirmInstruction = "Classify if the message reports a potential adverse medical/safety event (including mental-health crisis or self-harm risk) that requires human follow-up." +
	" Consider context and negations. Respond with STRICT JSON: {\"adverse\": true|false, \"confidence\": 0..1} only."

func (c *Confirmer) ConfirmAdverse(ctx context.Context, message string) (bool, float64, error) {
	raw, err := NewGenerator(c.client).Generate(ctx, confirmInstruction, "Message: "+message)
	if err != nil {
		return false, 0, err
	}

	var verdict struct {
		Adverse    *bool    `json:"adverse"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &verdict); err != nil {
		return false, 0, fmt.Errorf("parse confirmation json: %w", err)
	}
	if verdict.Adverse == nil || verdict.Confidence == nil {
		return false, 0, fmt.Errorf("confirmation json missing fields: %q", raw)
	}
	return *verdict.Adverse, *verdict.Confidence, nil
}

// Extractor turns free-form document text into knowledge entries for
// the import endpoints.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

const extractInstruction = "Extract FAQs from the given content. Return STRICT JSON array of objects with keys: question, answer, optional title, optional tags (array of strings). Do not include any extra text."

const extractContentLimit = 120000

func (x *Extractor) ExtractEntries(ctx context.Context, text string) ([]domain.KnowledgeEntry, error) {
	if len(text) > extractContentLimit {
		text = text[:extractContentLimit]
	}
	raw, err := NewGenerator(x.client).Generate(ctx, extractInstruction, "CONTENT:\n"+text)
	if err != nil {
		return nil, err
	}

	var entries []domain.KnowledgeEntry
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &entries); err != nil {
		return nil, fmt.Errorf("parse extracted faq json: %w", err)
	}
	return entries, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
