package service

import (
	"context"
	"fmt"
	"io"

	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Employees"

var exportHeader = []any{
	"Last name", "First name", "Patronymic", "Region",
	"Note date", "Note number", "Login", "Password",
}

// Export writes every employee matching filter to w as an xlsx workbook
// and returns the number of rows written.
func (s *EmployeeService) Export(ctx context.Context, actor *models.User, filter models.EmployeeFilter, w io.Writer) (int, error) {
	if !access.Allow(actor, access.OperationExport) {
		return 0, ErrForbidden
	}

	filter.Limit, filter.Offset = 0, 0
	employees, err := s.search(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(employees) == 0 {
		return 0, fmt.Errorf("nothing to export: %w", ErrNotFound)
	}

	if err := writeWorkbook(w, employees); err != nil {
		return 0, err
	}

	s.audit.Record(ctx, actor, ActionEmployeeExport, fmt.Sprintf("%d employees", len(employees)))
	return len(employees), nil
}

func writeWorkbook(w io.Writer, employees []models.Employee) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range employees {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(e)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "H", 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func exportRow(e models.Employee) []any {
	region := ""
	if e.RegionName != nil {
		region = e.RegionName.String()
	}
	noteDate := ""
	if e.NoteDate != nil {
		noteDate = e.NoteDate.String()
	}

	return []any{
		e.LastName, e.FirstName, e.Patronymic, region,
		noteDate, e.NoteNumber, e.Login, e.Password,
	}
}
