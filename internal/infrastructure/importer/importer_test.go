package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

type fakeExtractor struct {
	gotText string
	entries []domain.KnowledgeEntry
	err     error
}

func (f *fakeExtractor) ExtractEntries(_ context.Context, text string) ([]domain.KnowledgeEntry, error) {
	f.gotText = text
	return f.entries, f.err
}

func TestDecodeJSONBareArray(t *testing.T) {
	entries, err := DecodeJSON([]byte(`[{"question":"How long are files kept?","answer":"7 days."}]`))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Question != "How long are files kept?" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestDecodeJSONItemsWrapper(t *testing.T) {
	entries, err := DecodeJSON([]byte(`{"items":[{"question":"q1","answer":"a1"},{"question":"q2","answer":"a2"}]}`))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if len(entries) != 2 || entries[1].Answer != "a2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestDecodeCSVAliasColumnsAndTags(t *testing.T) {
	csv := "q,a,tags\nHow do I reset my password?,Use the reset link., account | security \n"
	entries, err := DecodeCSV([]byte(csv))
	if err != nil {
		t.Fatalf("DecodeCSV() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Question != "How do I reset my password?" || got.Answer != "Use the reset link." {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "account" || got.Tags[1] != "security" {
		t.Fatalf("unexpected tags: %v", got.Tags)
	}
}

func TestDecodeCSVRequiresQuestionColumn(t *testing.T) {
	if _, err := DecodeCSV([]byte("title,answer\nA,B\n")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDecodeAutoPrefersJSONThenCSV(t *testing.T) {
	entries, err := DecodeAuto([]byte(`[{"question":"q","answer":"a"}]`))
	if err != nil || len(entries) != 1 {
		t.Fatalf("json path: entries=%v err=%v", entries, err)
	}

	entries, err = DecodeAuto([]byte("question,answer\nq,a\n"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("csv path: entries=%v err=%v", entries, err)
	}

	if _, err := DecodeAuto([]byte{0x00, 0x01}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for binary payload, got %v", err)
	}
}

func TestDecodeXLSXFirstSheet(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	rows := [][]any{
		{"id", "title", "question", "answer", "tags"},
		{"42", "Retention", "How long are files kept?", "7 days.", "files|retention"},
		{},
		{"", "", "Second question", "Second answer", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	entries, err := DecodeXLSX(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeXLSX() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (blank row skipped), got %d: %+v", len(entries), entries)
	}
	if entries[0].ID != "42" || entries[0].Title != "Retention" || len(entries[0].Tags) != 2 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Question != "Second question" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestDecodeXLSXRejectsNonWorkbook(t *testing.T) {
	if _, err := DecodeXLSX([]byte("not a workbook")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestImportURLExtractsBodyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><style>.x{}</style><script>var a;</script></head>` +
			`<body><h1>Support FAQ</h1><p>Files are kept for 7 days.</p></body></html>`))
	}))
	defer server.Close()

	extractor := &fakeExtractor{entries: []domain.KnowledgeEntry{{Question: "q", Answer: "a"}}}
	imp := NewDocumentImporter(extractor, 0)

	entries, err := imp.ImportURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ImportURL() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected extractor entries, got %+v", entries)
	}
	if !strings.Contains(extractor.gotText, "Files are kept for 7 days.") {
		t.Fatalf("extractor text missing body content: %q", extractor.gotText)
	}
	if strings.Contains(extractor.gotText, "var a;") || strings.Contains(extractor.gotText, ".x{}") {
		t.Fatalf("script/style content leaked into text: %q", extractor.gotText)
	}
}

func TestImportURLRejectsEmptyURL(t *testing.T) {
	imp := NewDocumentImporter(&fakeExtractor{}, 0)
	if _, err := imp.ImportURL(context.Background(), "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestImportURLRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	imp := NewDocumentImporter(&fakeExtractor{}, 0)
	if _, err := imp.ImportURL(context.Background(), server.URL); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestImportPDFRejectsGarbage(t *testing.T) {
	imp := NewDocumentImporter(&fakeExtractor{}, 0)
	if _, err := imp.ImportPDF(context.Background(), []byte("definitely not a pdf")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestImportPDFRequiresExtractor(t *testing.T) {
	imp := NewDocumentImporter(nil, 0)
	if _, err := imp.ImportPDF(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
