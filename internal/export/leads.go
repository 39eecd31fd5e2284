// Package export writes staged leads to an Excel workbook for offline review.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

// SheetName is the worksheet holding the exported leads.
const SheetName = "Discovered Leads"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

// Columns lists the exported columns in order.
var Columns = []string{
	"id", "name", "email", "phone", "company", "website", "location", "title",
	"source_type", "source_url", "discovery_status", "confidence_score", "imported_lead_id", "created_at",
}

// WriteStagedLeads writes one row per lead beneath a bold, frozen header row.
func WriteStagedLeads(w io.Writer, leads []models.StagedLead) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := styleHeader(f); err != nil {
		return err
	}

	for i := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := leadRow(&leads[i])
		if setErr := f.SetSheetRow(SheetName, cell, &row); setErr != nil {
			return fmt.Errorf("write row %d: %w", i+2, setErr)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func leadRow(l *models.StagedLead) []any {
	importedID := ""
	if l.ImportedLeadID != nil {
		importedID = *l.ImportedLeadID
	}
	return []any{
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Website, l.Location, l.Title,
		string(l.SourceType), l.SourceURL, string(l.DiscoveryStatus), l.ConfidenceScore,
		importedID, l.CreatedAt.UTC().Format(timeLayout),
	}
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if styleErr := f.SetCellStyle(SheetName, "A1", last, style); styleErr != nil {
		return fmt.Errorf("style header: %w", styleErr)
	}
	if paneErr := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); paneErr != nil {
		return fmt.Errorf("freeze header: %w", paneErr)
	}
	return nil
}

// Filename returns a download name for an export taken at the given unix time.
func Filename(unix int64) string {
	return "discovered-leads-" + strconv.FormatInt(unix, 10) + ".xlsx"
}
