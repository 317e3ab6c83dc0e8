//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"sort"
	"time"

	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

// DateID encodes a calendar date as a yyyymmdd integer. It is a pure
// function of the date and serves as the dim_date surrogate key.
func DateID(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// NewDateRow derives the full dim_date row for one calendar date.
// Week numbering follows ISO-8601 (a week 1 that may start in the
// previous calendar year); quarters are calendar quarters.
func NewDateRow(t time.Time) warehouse.DateRow {
	_, week := t.ISOWeek()
	wd := t.Weekday()
	return warehouse.DateRow{
		DateID:     DateID(t),
		FullDate:   t,
		Day:        t.Day(),
		Month:      int(t.Month()),
		MonthName:  t.Month().String(),
		Quarter:    (int(t.Month())-1)/3 + 1,
		Year:       t.Year(),
		WeekOfYear: week,
		DayOfWeek:  wd.String(),
		IsWeekend:  wd == time.Saturday || wd == time.Sunday,
	}
}

// BuildDateDim produces one DateRow per distinct order date, sorted by
// date_id so the output does not depend on source order.
func BuildDateDim(orders []source.OrderRecord) []warehouse.DateRow {
	seen := make(map[int]warehouse.DateRow)
	for _, o := range orders {
		id := DateID(o.OrderDate)
		if _, ok := seen[id]; !ok {
			seen[id] = NewDateRow(o.OrderDate)
		}
	}

	rows := make([]warehouse.DateRow, 0, len(seen))
	for _, r := range seen {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DateID < rows[j].DateID })
	return rows
}
