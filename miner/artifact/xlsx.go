// Package artifact renders mining results into downloadable spreadsheets.
package artifact

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds the artifact object name from the mining keyword. The
// timestamp keeps repeated runs of the same keyword from clobbering each
// other.
func Filename(keyword string, at time.Time) string {
	return fmt.Sprintf("mining_results_%s_%s.xlsx", slugify(keyword), at.Format("20060102_150405"))
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "results"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

// ContentType is the MIME type uploaded alongside the workbook.
func ContentType() string { return xlsxContentType }

// Write renders one contact per row under a single capitalized header. The
// sheet is named after the data kind ("Emails" or "Phones").
func Write(kind string, contacts []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(kind)
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	header := headerFor(kind)
	if err := f.SetCellValue(sheet, "A1", header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheet, "A1", "A1", style)
	}

	for i, c := range contacts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, c); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 36)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(kind string) string {
	switch strings.ToLower(kind) {
	case "email", "emails":
		return "Emails"
	case "phone", "phones":
		return "Phones"
	default:
		return "Contacts"
	}
}

func headerFor(kind string) string {
	switch strings.ToLower(kind) {
	case "email", "emails":
		return "Email"
	case "phone", "phones":
		return "Phone"
	default:
		return "Contact"
	}
}
