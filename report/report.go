/*
Package report renders spreadsheet exports of the scheduling data.

PURPOSE:
  Turns the occupancy breakdown and the leave report into .xlsx files for
  the people who live in spreadsheets. Rendering is write-only: the
  package never touches a store, callers pass in already-computed rows.
*/
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mkomis20/Team-Scheduler/scheduler"
)

// WriteOccupancy writes the per-day office breakdown as a spreadsheet.
func WriteOccupancy(w io.Writer, days []scheduler.DayOccupancy) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Occupancy"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "WFH", "Annual Leave", "Seminar", "Out of Office", "In Office", "WFH %", "Annual Leave %", "Seminar %"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, day := range days {
		row := []any{
			day.Date.String(),
			day.WFH,
			day.AnnualLeave,
			day.Seminar,
			day.OutOfOffice,
			day.InOffice,
			day.WFHPercent.String(),
			day.AnnualLeavePercent.String(),
			day.SeminarPercent.String(),
		}
		if err := writeRowValues(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// WriteBalances writes the leave report as a spreadsheet, one row per
// employee.
func WriteBalances(w io.Writer, rows []scheduler.BalanceRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leave Balances"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Employee ID", "Name", "Balance", "Scheduled", "Remaining"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		values := []any{
			string(row.EmployeeID),
			row.Name,
			row.Balance,
			row.Scheduled,
			row.Remaining,
		}
		if err := writeRowValues(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return writeRowValues(f, sheet, row, out)
}

func writeRowValues(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
