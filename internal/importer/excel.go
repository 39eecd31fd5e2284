// Package importer reads discovery sources from an Excel workbook.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// Header names recognised in row 1. Column order is free.
const (
	colName           = "name"
	colSourceType     = "source_type"
	colSourceURL      = "source_url"
	colIsActive       = "is_active"
	colCrawlFrequency = "crawl_frequency"
	colCrawlSettings  = "crawl_settings"

	headerRowIndex = 1 // Excel rows are 1-based, header is row 1
)

// Headers lists the template columns in their canonical order.
var Headers = []string{colName, colSourceType, colSourceURL, colIsActive, colCrawlFrequency, colCrawlSettings}

var requiredColumns = []string{colName, colSourceType, colSourceURL}

// SourceRow represents a parsed row from the spreadsheet.
type SourceRow struct {
	Row            int // Excel row number (for error reporting)
	Name           string
	SourceType     string
	SourceURL      string
	IsActive       bool
	CrawlFrequency string
	CrawlSettings  string // Raw JSON object
}

// ImportError represents a validation error for a specific row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ValidateRow validates a single row and returns an error message or empty string.
func ValidateRow(row SourceRow) string {
	if strings.TrimSpace(row.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(row.SourceURL) == "" {
		return "source_url is required"
	}
	u, err := url.Parse(row.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "source_url must be an http:// or https:// URL"
	}
	if !models.SourceType(row.SourceType).Valid() {
		return fmt.Sprintf("source_type %q is not one of website, directory, social_media, api", row.SourceType)
	}
	if row.CrawlFrequency != "" && !models.CrawlFrequency(row.CrawlFrequency).Valid() {
		return fmt.Sprintf("crawl_frequency %q is not one of hourly, daily, weekly, monthly", row.CrawlFrequency)
	}
	if row.CrawlSettings != "" {
		if _, settingsErr := parseSettingsJSON(row.CrawlSettings); settingsErr != nil {
			return "crawl_settings must be a JSON object"
		}
	}
	return ""
}

// ParseExcelFile reads the first sheet and returns the valid rows plus one error per invalid row.
// A workbook that cannot be read or lacks required headers yields a single error for row 1.
func ParseExcelFile(r io.Reader) ([]SourceRow, []ImportError) {
	rows, err := openExcelRows(r)
	if err != nil {
		return nil, []ImportError{{Row: headerRowIndex, Error: err.Error()}}
	}
	if len(rows) == 0 {
		return []SourceRow{}, nil
	}

	colMap := headerColumns(rows[0])
	if missing := validateRequiredColumns(colMap); missing != nil {
		return nil, []ImportError{*missing}
	}

	parsed := make([]SourceRow, 0, len(rows)-1)
	var importErrors []ImportError
	for i, cells := range rows[1:] {
		rowNum := i + headerRowIndex + 1
		if blankRow(cells) {
			continue
		}
		row := SourceRow{
			Row:            rowNum,
			Name:           cell(cells, colMap, colName),
			SourceType:     cell(cells, colMap, colSourceType),
			SourceURL:      cell(cells, colMap, colSourceURL),
			IsActive:       parseBool(cell(cells, colMap, colIsActive)),
			CrawlFrequency: cell(cells, colMap, colCrawlFrequency),
			CrawlSettings:  cell(cells, colMap, colCrawlSettings),
		}
		if msg := ValidateRow(row); msg != "" {
			importErrors = append(importErrors, ImportError{Row: rowNum, Error: msg})
			continue
		}
		parsed = append(parsed, row)
	}
	return parsed, importErrors
}

// ToSource converts a validated row into a discovery source.
func ToSource(row SourceRow) (*models.DiscoverySource, error) {
	settings, err := parseSettingsJSON(row.CrawlSettings)
	if err != nil {
		return nil, fmt.Errorf("row %d: crawl_settings: %w", row.Row, err)
	}
	source := &models.DiscoverySource{
		Name:           row.Name,
		SourceType:     models.SourceType(row.SourceType),
		SourceURL:      row.SourceURL,
		IsActive:       row.IsActive,
		CrawlFrequency: models.CrawlFrequency(row.CrawlFrequency),
		CrawlSettings:  settings,
	}
	if validateErr := source.Validate(); validateErr != nil {
		return nil, fmt.Errorf("row %d: %w", row.Row, validateErr)
	}
	return source, nil
}

func openExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return [][]string{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if rows == nil {
		return [][]string{}, nil
	}
	return rows, nil
}

func headerColumns(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key != "" {
			colMap[key] = i
		}
	}
	return colMap
}

func validateRequiredColumns(colMap map[string]int) *ImportError {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ImportError{
		Row:   headerRowIndex,
		Error: "missing required columns: " + strings.Join(missing, ", "),
	}
}

func cell(cells []string, colMap map[string]int, col string) string {
	idx, ok := colMap[col]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseBool accepts true/false/1/0/yes/no; anything else, including blank, is false.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSettingsJSON(raw string) (models.CrawlSettings, error) {
	settings := models.CrawlSettings{}
	if strings.TrimSpace(raw) == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, err
	}
	return settings, nil
}
