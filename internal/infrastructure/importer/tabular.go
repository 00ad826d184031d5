// Package importer decodes uploaded knowledge-base files and scraped
// pages into knowledge entries. Decoders return entries as found;
// id/title normalization happens in the admin use case.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

var errUnsupportedFormat = errors.New("unsupported file format: provide a JSON array or CSV with columns question,answer[,title,tags]")

// DecodeAuto accepts either a JSON payload or a CSV payload, in that
// order of preference.
func DecodeAuto(data []byte) ([]domain.KnowledgeEntry, error) {
	if entries, err := DecodeJSON(data); err == nil {
		return entries, nil
	}
	if entries, err := DecodeCSV(data); err == nil {
		return entries, nil
	}
	return nil, domain.WrapError(domain.ErrInvalidInput, "decode import", errUnsupportedFormat)
}

// DecodeJSON accepts a bare entry array or an object wrapping one in
// an "items" field.
func DecodeJSON(data []byte) ([]domain.KnowledgeEntry, error) {
	var entries []domain.KnowledgeEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Items []domain.KnowledgeEntry `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode json import", err)
	}
	if wrapped.Items == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode json import", errors.New("expected an array or an items field"))
	}
	return wrapped.Items, nil
}

// DecodeCSV reads a header row and maps the columns id, title,
// question (or q), answer (or a) and tags. Tags are |-separated.
func DecodeCSV(data []byte) ([]domain.KnowledgeEntry, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode csv import", err)
	}
	columns := indexColumns(header)
	if _, ok := columns["question"]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode csv import", errors.New("missing question column"))
	}

	var entries []domain.KnowledgeEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode csv import", err)
		}
		entries = append(entries, entryFromRecord(columns, record))
	}
	return entries, nil
}

// indexColumns maps canonical column names to their positions,
// folding the q/a aliases onto question/answer.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			columns["id"] = i
		case "title":
			columns["title"] = i
		case "question", "q":
			if _, ok := columns["question"]; !ok {
				columns["question"] = i
			}
		case "answer", "a":
			if _, ok := columns["answer"]; !ok {
				columns["answer"] = i
			}
		case "tags":
			columns["tags"] = i
		}
	}
	return columns
}

func entryFromRecord(columns map[string]int, record []string) domain.KnowledgeEntry {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return domain.KnowledgeEntry{
		ID:       field("id"),
		Title:    field("title"),
		Question: field("question"),
		Answer:   field("answer"),
		Tags:     splitTags(field("tags")),
	}
}

func splitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
