package importer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// DecodeXLSX reads the first sheet of a workbook using the same column
// conventions as DecodeCSV.
func DecodeXLSX(data []byte) ([]domain.KnowledgeEntry, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode xlsx import", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode xlsx import", errors.New("workbook has no sheets"))
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode xlsx import", errors.New("sheet is empty"))
	}

	columns := indexColumns(rows[0])
	if _, ok := columns["question"]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode xlsx import", errors.New("missing question column"))
	}

	var entries []domain.KnowledgeEntry
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		entries = append(entries, entryFromRecord(columns, row))
	}
	return entries, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
