package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

const maxFetchBytes = 4 << 20

// DocumentImporter turns PDFs and web pages into knowledge entries by
// extracting their plain text and handing it to the FAQ extractor.
type DocumentImporter struct {
	extractor  ports.FAQExtractor
	httpClient *http.Client
}

func NewDocumentImporter(extractor ports.FAQExtractor, fetchTimeout time.Duration) *DocumentImporter {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &DocumentImporter{
		extractor:  extractor,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

func (d *DocumentImporter) ImportPDF(ctx context.Context, data []byte) ([]domain.KnowledgeEntry, error) {
	if d.extractor == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import pdf", errors.New("faq extraction is not configured"))
	}
	text, err := pdfText(data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import pdf", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import pdf", errors.New("no extractable text"))
	}
	entries, err := d.extractor.ExtractEntries(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract entries from pdf: %w", err)
	}
	return entries, nil
}

func (d *DocumentImporter) ImportURL(ctx context.Context, url string) ([]domain.KnowledgeEntry, error) {
	if d.extractor == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import url", errors.New("faq extraction is not configured"))
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import url", errors.New("url is required"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import url", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "fetch url", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch url", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read url body: %w", err)
	}
	text := htmlBodyText(body)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "import url", errors.New("no readable text at url"))
	}
	entries, err := d.extractor.ExtractEntries(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract entries from url: %w", err)
	}
	return entries, nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// htmlBodyText collects text nodes under <body>, skipping script and
// style subtrees. A parse failure yields an empty string; html.Parse
// itself tolerates almost anything.
func htmlBodyText(raw []byte) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return sb.String()
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}
