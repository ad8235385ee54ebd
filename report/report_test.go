package report_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mkomis20/Team-Scheduler/report"
	"github.com/mkomis20/Team-Scheduler/scheduler"
)

func TestWriteOccupancy(t *testing.T) {
	days := []scheduler.DayOccupancy{
		{
			Date: scheduler.NewDate(2025, 1, 6),
			WFH:  2, AnnualLeave: 1, Seminar: 0,
			OutOfOffice: 3, InOffice: 7,
			WFHPercent:         decimal.NewFromInt(20),
			AnnualLeavePercent: decimal.NewFromInt(10),
			SeminarPercent:     decimal.Zero,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteOccupancy(&buf, days))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Occupancy")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2025-01-06", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "20", rows[1][6])
}

func TestWriteBalances(t *testing.T) {
	rows := []scheduler.BalanceRow{
		{EmployeeID: "A1B2", Name: "Alice", Balance: 20, Scheduled: 5, Remaining: 15},
		{EmployeeID: "C3D4", Name: "Bob", Balance: 20, Scheduled: 0, Remaining: 20},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteBalances(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Leave Balances")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Employee ID", "Name", "Balance", "Scheduled", "Remaining"}, got[0])
	assert.Equal(t, "Alice", got[1][1])
	assert.Equal(t, "15", got[1][4])
}

func TestWriteOccupancy_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteOccupancy(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Occupancy")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
