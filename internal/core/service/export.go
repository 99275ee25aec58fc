package service

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/routedesk/logistics-api/internal/core/domain"
)

const exportSheet = "Users"

var exportHeader = []any{
	"Name", "Phone", "Role", "Location", "Rating", "CreatedAt",
	"IsApproved", "IsBlocked", "UserId", "BackendId",
}

// writeUsersWorkbook renders users into a single-sheet workbook.
func writeUsersWorkbook(w io.Writer, users []domain.User) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("export header: %w", err)
	}

	for i, u := range users {
		row := []any{
			u.Name, u.Phone, u.Role, u.Location, u.Rating, u.CreatedAt,
			u.IsApproved, u.IsBlocked, u.UserID, u.BackendID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("export row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export write: %w", err)
	}
	return nil
}
