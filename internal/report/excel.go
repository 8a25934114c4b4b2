package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/refscout/refscout/internal/model"
)

const sheetName = "References"

// columns defines the report header row (10 columns). Order is part of
// the output contract and must not change.
var columns = []string{
	"paper_title",
	"year",
	"first_author_name",
	"first_author_affiliations",
	"first_author_emails",
	"last_author_name",
	"last_author_affiliations",
	"last_author_emails",
	"reference_raw",
	"notes",
}

// Writer renders reconciled rows as an xlsx workbook
type Writer struct{}

// NewWriter creates a report writer
func NewWriter() *Writer {
	return &Writer{}
}

// Write renders one worksheet with a header row plus one row per
// reference, in input order, and saves it to path.
func (w *Writer) Write(path string, rows []model.OutputRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := writeRow(f, 1, columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		if err := writeRow(f, i+2, rowToCells(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
	}
	return nil
}

// rowToCells flattens an output row into the 10-column layout
func rowToCells(row model.OutputRow) []string {
	year := ""
	if row.Year != 0 {
		year = strconv.Itoa(row.Year)
	}

	return []string{
		row.PaperTitle,
		year,
		row.FirstAuthorName,
		row.FirstAuthorAffiliation,
		row.FirstAuthorEmails,
		row.LastAuthorName,
		row.LastAuthorAffiliation,
		row.LastAuthorEmails,
		row.ReferenceRaw,
		row.Notes,
	}
}
