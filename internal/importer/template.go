package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet     = "Sources"
	instructionsSheet = "Instructions"
)

var templateExamples = [][]string{
	{"acme-team-page", "website", "https://acme.example/team", "true", "weekly", ""},
	{"partners-api", "api", "https://api.partners.example/v1/contacts", "true", "daily", `{"api_key":"replace-me"}`},
	{"chamber-directory", "directory", "https://chamber.example/members", "false", "monthly", ""},
}

var templateInstructions = []string{
	"Column Descriptions:",
	"",
	"name - Required. Display name for the source",
	"source_type - Required. website, directory, social_media or api",
	"source_url - Required. Page or endpoint to crawl (must start with http:// or https://)",
	"is_active - Optional. true/false/1/0/yes/no (default: false)",
	"crawl_frequency - Optional. hourly, daily, weekly or monthly (default: daily)",
	`crawl_settings - Optional. JSON object, e.g. {"api_key":"..."} for api sources`,
}

// WriteTemplate writes an import template workbook with example rows and instructions.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := append([][]string{Headers}, templateExamples...)
	for r, values := range rows {
		for c, v := range values {
			if err := setCell(f, templateSheet, c+1, r+1, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}
	for i, line := range templateInstructions {
		if err := setCell(f, instructionsSheet, 1, i+1, line); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if setErr := f.SetCellValue(sheet, cell, value); setErr != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, setErr)
	}
	return nil
}
