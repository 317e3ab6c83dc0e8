//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerNames(t *testing.T) {
	f := NewFaker()
	if f.FirstName() == "" {
		t.Error("FirstName returned empty string")
	}
	if f.LastName() == "" {
		t.Error("LastName returned empty string")
	}
	if f.City() == "" {
		t.Error("City returned empty string")
	}
	if f.Company() == "" {
		t.Error("Company returned empty string")
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		p := f.Price(10, 100)
		if p < 10 || p > 100 {
			t.Errorf("Price %f outside range [10, 100]", p)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(1, 5)
		if v < 1 || v > 5 {
			t.Errorf("Int %d outside range [1, 5]", v)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("DateRange %v outside range", d)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(1)
	items := []string{"a", "b", "c"}
	valid := map[string]bool{"a": true, "b": true, "c": true}
	for i := 0; i < 50; i++ {
		if v := Choose(f, items); !valid[v] {
			t.Errorf("Choose returned %q", v)
		}
	}

	var empty []int
	if v := Choose(f, empty); v != 0 {
		t.Errorf("Choose on empty slice = %d, want zero value", v)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(2)
	items := []string{"common", "rare"}
	weights := []int{9, 1}

	counts := make(map[string]int)
	for i := 0; i < 1000; i++ {
		counts[ChooseWeighted(f, items, weights)]++
	}

	if counts["common"] <= counts["rare"] {
		t.Errorf("weighted choice ignored weights: %v", counts)
	}
	if counts["common"]+counts["rare"] != 1000 {
		t.Errorf("unexpected values chosen: %v", counts)
	}
}
