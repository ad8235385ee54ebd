/*
occupancy.go - Daily office occupancy aggregation

PURPOSE:
  Derives, for each day in a range, how many employees are out (WFH, annual
  leave, seminar) and how many are in the office, plus each category's
  percentage of headcount. Pure read over the three attendance stores and
  the current directory size.

SPARSENESS:
  Only days with at least one non-office record are returned. A dense
  calendar (including fully-in-office days) is deliberately the caller's
  job to reconstruct; this keeps the aggregation independent of weekends,
  holidays, and display ranges.
*/
package scheduler

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// DayOccupancy is one day's breakdown. Percentages are of total headcount,
// rounded to one decimal place.
type DayOccupancy struct {
	Date        Date
	WFH         int
	AnnualLeave int
	Seminar     int
	OutOfOffice int
	InOffice    int

	WFHPercent         decimal.Decimal
	AnnualLeavePercent decimal.Decimal
	SeminarPercent     decimal.Decimal
}

// Aggregator computes occupancy from the attendance stores and headcount.
type Aggregator struct {
	store Stores
}

// NewAggregator creates an Aggregator over the given backend.
func NewAggregator(store Stores) *Aggregator {
	return &Aggregator{store: store}
}

// Range returns sparse per-day occupancy for [rng.Start, rng.End], sorted by
// date. With an empty directory there is nothing to occupy: the result is
// empty.
func (a *Aggregator) Range(ctx context.Context, rng DateRange) ([]DayOccupancy, error) {
	employees, err := a.store.LoadEmployees(ctx)
	if err != nil {
		return nil, err
	}
	total := len(employees)
	if total == 0 {
		return nil, nil
	}

	byDate := make(map[string]*DayOccupancy)
	day := func(d Date) *DayOccupancy {
		occ, ok := byDate[d.String()]
		if !ok {
			occ = &DayOccupancy{Date: d}
			byDate[d.String()] = occ
		}
		return occ
	}

	for _, category := range Categories() {
		records, err := a.store.LoadRecords(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if !rng.Contains(rec.Date) {
				continue
			}
			occ := day(rec.Date)
			switch category {
			case CategoryWFH:
				occ.WFH++
			case CategoryAnnualLeave:
				occ.AnnualLeave++
			case CategorySeminar:
				occ.Seminar++
			}
		}
	}

	headcount := decimal.NewFromInt(int64(total))
	hundred := decimal.NewFromInt(100)
	percent := func(n int) decimal.Decimal {
		return decimal.NewFromInt(int64(n)).Mul(hundred).Div(headcount).Round(1)
	}

	out := make([]DayOccupancy, 0, len(byDate))
	for _, occ := range byDate {
		occ.OutOfOffice = occ.WFH + occ.AnnualLeave + occ.Seminar
		occ.InOffice = total - occ.OutOfOffice
		occ.WFHPercent = percent(occ.WFH)
		occ.AnnualLeavePercent = percent(occ.AnnualLeave)
		occ.SeminarPercent = percent(occ.Seminar)
		out = append(out, *occ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
