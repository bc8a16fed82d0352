// Package export renders companies and their employees as spreadsheets.
package export

import (
	"fmt"

	"github.com/deppfellow/company-api/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	// ContentTypeXLSX is the media type of the workbook returned by Companies.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	CompaniesSheet = "Companies"
	EmployeesSheet = "Employees"
)

var (
	companyHeaders  = []string{"ID", "Name", "Address", "Country", "Employees"}
	employeeHeaders = []string{"ID", "Company ID", "Company", "Name", "Age", "Position", "Salary"}
)

// Companies builds a workbook with one sheet of companies and one sheet of
// employees, and returns it encoded as .xlsx.
//
// Rows follow the order of companies and of each company's employees.
func Companies(companies []model.Company) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(CompaniesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if _, err := f.NewSheet(EmployeesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Built-in number format 4 is "#,##0.00".
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to create salary style: %w", err)
	}

	if err := writeHeader(f, CompaniesSheet, companyHeaders, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, EmployeesSheet, employeeHeaders, headerStyle); err != nil {
		return nil, err
	}

	employeeRow := 2
	for i, c := range companies {
		row := []any{c.ID, c.Name, c.Address, c.Country, len(c.Employees)}
		if err := writeRow(f, CompaniesSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, e := range c.Employees {
			row := []any{e.ID, e.CompanyID, c.Name, e.Name, e.Age, e.Position, e.Salary.InexactFloat64()}
			if err := writeRow(f, EmployeesSheet, employeeRow, row); err != nil {
				return nil, err
			}

			salaryCell, _ := excelize.CoordinatesToCellName(len(row), employeeRow)
			if err := f.SetCellStyle(EmployeesSheet, salaryCell, salaryCell, moneyStyle); err != nil {
				return nil, fmt.Errorf("failed to style %s: %w", salaryCell, err)
			}
			employeeRow++
		}
	}

	for _, sheet := range []string{CompaniesSheet, EmployeesSheet} {
		if err := f.SetColWidth(sheet, "A", "G", 18); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}

	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
