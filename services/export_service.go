package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"sushicount-api/models"
)

const (
	ExportSheet       = "Sessions"
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []interface{}{"Title", "Restaurant", "Created", "Active", "Total", "Rating", "My count", "Participants"}

type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// SessionsWorkbook renders sessions as an XLSX workbook seen from userID.
func (s *ExportService) SessionsWorkbook(userID string, sessions []models.Session) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(ExportSheet, "A1", "H1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, session := range sessions {
		restaurant := ""
		if session.RestaurantName != nil {
			restaurant = *session.RestaurantName
		}
		var rating interface{} = ""
		if session.Rating != nil {
			rating = *session.Rating
		}
		myCount := 0
		if idx := session.FindParticipant(userID); idx >= 0 {
			myCount = session.Participants[idx].Count
		}

		row := []interface{}{
			session.Title,
			restaurant,
			session.CreatedAt.Format("2006-01-02 15:04"),
			session.IsActive,
			session.TotalCount,
			rating,
			myCount,
			len(session.Participants),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write session %s: %w", session.ID, err)
		}
	}

	if err := f.SetColWidth(ExportSheet, "A", "B", 28); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
