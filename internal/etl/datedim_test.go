package etl

import (
	"testing"
	"time"

	"github.com/retaildw/retaildw/internal/source"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateID(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{date(2024, time.March, 15), 20240315},
		{date(2022, time.January, 1), 20220101},
		{date(1999, time.December, 31), 19991231},
	}

	for _, tt := range tests {
		if got := DateID(tt.in); got != tt.want {
			t.Errorf("DateID(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewDateRow(t *testing.T) {
	// 2024-03-15 is a Friday in Q1, ISO week 11.
	row := NewDateRow(date(2024, time.March, 15))

	if row.DateID != 20240315 {
		t.Errorf("DateID = %d, want 20240315", row.DateID)
	}
	if row.Day != 15 || row.Month != 3 || row.Year != 2024 {
		t.Errorf("Day/Month/Year = %d/%d/%d, want 15/3/2024", row.Day, row.Month, row.Year)
	}
	if row.MonthName != "March" {
		t.Errorf("MonthName = %q, want March", row.MonthName)
	}
	if row.Quarter != 1 {
		t.Errorf("Quarter = %d, want 1", row.Quarter)
	}
	if row.WeekOfYear != 11 {
		t.Errorf("WeekOfYear = %d, want 11", row.WeekOfYear)
	}
	if row.DayOfWeek != "Friday" {
		t.Errorf("DayOfWeek = %q, want Friday", row.DayOfWeek)
	}
	if row.IsWeekend {
		t.Error("IsWeekend = true, want false")
	}
}

func TestNewDateRowWeekend(t *testing.T) {
	sat := NewDateRow(date(2024, time.March, 16))
	if !sat.IsWeekend || sat.DayOfWeek != "Saturday" {
		t.Errorf("Saturday: IsWeekend=%v DayOfWeek=%q", sat.IsWeekend, sat.DayOfWeek)
	}
	sun := NewDateRow(date(2024, time.March, 17))
	if !sun.IsWeekend || sun.DayOfWeek != "Sunday" {
		t.Errorf("Sunday: IsWeekend=%v DayOfWeek=%q", sun.IsWeekend, sun.DayOfWeek)
	}
}

func TestNewDateRowYearBoundary(t *testing.T) {
	// ISO-8601 week numbering: 2021-01-01 (Friday) belongs to week 53
	// of the previous ISO year, 2024-12-30 (Monday) to week 1 of the
	// next one.
	tests := []struct {
		in          time.Time
		wantWeek    int
		wantQuarter int
	}{
		{date(2021, time.January, 1), 53, 1},
		{date(2024, time.December, 30), 1, 4},
		{date(2022, time.October, 1), 39, 4},
	}

	for _, tt := range tests {
		row := NewDateRow(tt.in)
		if row.WeekOfYear != tt.wantWeek {
			t.Errorf("NewDateRow(%v).WeekOfYear = %d, want %d",
				tt.in, row.WeekOfYear, tt.wantWeek)
		}
		if row.Quarter != tt.wantQuarter {
			t.Errorf("NewDateRow(%v).Quarter = %d, want %d",
				tt.in, row.Quarter, tt.wantQuarter)
		}
	}
}

func TestBuildDateDim(t *testing.T) {
	orders := []source.OrderRecord{
		{OrderID: 1, OrderDate: date(2024, time.March, 15)},
		{OrderID: 2, OrderDate: date(2024, time.January, 2)},
		{OrderID: 3, OrderDate: date(2024, time.March, 15)}, // duplicate date
		{OrderID: 4, OrderDate: date(2023, time.December, 31)},
	}

	rows := BuildDateDim(orders)

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	// Output is sorted by date_id regardless of input order.
	want := []int{20231231, 20240102, 20240315}
	for i, w := range want {
		if rows[i].DateID != w {
			t.Errorf("rows[%d].DateID = %d, want %d", i, rows[i].DateID, w)
		}
	}
}

func TestBuildDateDimOrderIndependent(t *testing.T) {
	a := []source.OrderRecord{
		{OrderID: 1, OrderDate: date(2024, time.June, 1)},
		{OrderID: 2, OrderDate: date(2024, time.February, 10)},
	}
	b := []source.OrderRecord{
		{OrderID: 2, OrderDate: date(2024, time.February, 10)},
		{OrderID: 1, OrderDate: date(2024, time.June, 1)},
	}

	rowsA := BuildDateDim(a)
	rowsB := BuildDateDim(b)

	if len(rowsA) != len(rowsB) {
		t.Fatalf("row counts differ: %d vs %d", len(rowsA), len(rowsB))
	}
	for i := range rowsA {
		if rowsA[i] != rowsB[i] {
			t.Errorf("rows[%d] differ: %+v vs %+v", i, rowsA[i], rowsB[i])
		}
	}
}
