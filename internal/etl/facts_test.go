package etl

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func testLookups() Lookups {
	return Lookups{
		Dates: map[int]struct{}{
			20240315: {},
		},
		Customers: map[int]struct{}{
			7: {},
		},
		ProductCosts: map[int]float64{
			3: 10.00,
		},
		Channels: NewChannels(),
	}
}

func testOrders() []source.OrderRecord {
	return []source.OrderRecord{
		{
			OrderID:    1001,
			CustomerID: 7,
			OrderDate:  time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			Status:     "completed",
			Channel:    "store",
		},
	}
}

func TestFactBuilderMeasures(t *testing.T) {
	builder := NewFactBuilder(testOrders(), testLookups())

	facts, rejects := builder.Transform([]source.OrderItemRecord{
		{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 2, UnitPrice: 25.00, Discount: 0.1},
	})

	if len(rejects) != 0 {
		t.Fatalf("unexpected rejects: %v", rejects)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}

	f := facts[0]
	if !almostEqual(f.GrossRevenue, 50.00) {
		t.Errorf("GrossRevenue = %v, want 50.00", f.GrossRevenue)
	}
	if !almostEqual(f.NetRevenue, 45.00) {
		t.Errorf("NetRevenue = %v, want 45.00", f.NetRevenue)
	}
	if !almostEqual(f.COGS, 20.00) {
		t.Errorf("COGS = %v, want 20.00", f.COGS)
	}
	if !almostEqual(f.GrossMargin, 25.00) {
		t.Errorf("GrossMargin = %v, want 25.00", f.GrossMargin)
	}

	if f.DateID != 20240315 {
		t.Errorf("DateID = %d, want 20240315", f.DateID)
	}
	if f.CustomerID != 7 || f.ProductID != 3 {
		t.Errorf("keys = customer %d product %d, want 7 and 3", f.CustomerID, f.ProductID)
	}
	if f.ChannelID != 3 {
		t.Errorf("ChannelID = %d, want 3 (store)", f.ChannelID)
	}
	if f.Status != warehouse.StatusCompleted {
		t.Errorf("Status = %q, want completed", f.Status)
	}
	if f.UnitCost != 10.00 {
		t.Errorf("UnitCost = %v, want 10.00 (from dim_product)", f.UnitCost)
	}
}

func TestFactBuilderMarginConsistency(t *testing.T) {
	builder := NewFactBuilder(testOrders(), testLookups())

	// Awkward prices exercise the rounding path.
	facts, _ := builder.Transform([]source.OrderItemRecord{
		{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 3, UnitPrice: 19.99, Discount: 0.15},
	})
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}

	f := facts[0]
	if !almostEqual(f.GrossRevenue, round4(3*19.99)) {
		t.Errorf("GrossRevenue = %v", f.GrossRevenue)
	}
	if !almostEqual(f.NetRevenue, round4(f.GrossRevenue*0.85)) {
		t.Errorf("NetRevenue = %v", f.NetRevenue)
	}
	// gross_margin must track net_revenue - cogs.
	if !almostEqual(f.GrossMargin, f.NetRevenue-f.COGS) {
		t.Errorf("GrossMargin = %v, want %v", f.GrossMargin, f.NetRevenue-f.COGS)
	}
}

func TestFactBuilderRejections(t *testing.T) {
	tests := []struct {
		name    string
		item    source.OrderItemRecord
		wantRI  bool
		wantDQ  bool
		wantDim string
		wantFld string
	}{
		{
			name:    "missing order",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 9999, ProductID: 3, Quantity: 1, UnitPrice: 5},
			wantRI:  true,
			wantDim: "orders",
		},
		{
			name:    "missing product",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 1001, ProductID: 42, Quantity: 1, UnitPrice: 5},
			wantRI:  true,
			wantDim: "dim_product",
		},
		{
			name:    "discount above one",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 1, UnitPrice: 5, Discount: 1.5},
			wantDQ:  true,
			wantFld: "discount",
		},
		{
			name:    "negative discount",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 1, UnitPrice: 5, Discount: -0.1},
			wantDQ:  true,
			wantFld: "discount",
		},
		{
			name:    "zero quantity",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 0, UnitPrice: 5},
			wantDQ:  true,
			wantFld: "quantity",
		},
		{
			name:    "negative price",
			item:    source.OrderItemRecord{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 1, UnitPrice: -5},
			wantDQ:  true,
			wantFld: "unit_price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewFactBuilder(testOrders(), testLookups())
			facts, rejects := builder.Transform([]source.OrderItemRecord{tt.item})

			if len(facts) != 0 {
				t.Fatalf("got %d facts, want 0", len(facts))
			}
			if len(rejects) != 1 {
				t.Fatalf("got %d rejects, want 1", len(rejects))
			}

			if tt.wantRI {
				var ri *ReferentialIntegrityError
				if !errors.As(rejects[0], &ri) {
					t.Fatalf("reject is %T, want *ReferentialIntegrityError", rejects[0])
				}
				if ri.Dimension != tt.wantDim {
					t.Errorf("dimension = %q, want %q", ri.Dimension, tt.wantDim)
				}
			}
			if tt.wantDQ {
				var dq *DataQualityError
				if !errors.As(rejects[0], &dq) {
					t.Fatalf("reject is %T, want *DataQualityError", rejects[0])
				}
				if dq.Field != tt.wantFld {
					t.Errorf("field = %q, want %q", dq.Field, tt.wantFld)
				}
			}
		})
	}
}

func TestFactBuilderRejectionIsolation(t *testing.T) {
	builder := NewFactBuilder(testOrders(), testLookups())

	// One bad row must not take down the rest of the batch.
	items := []source.OrderItemRecord{
		{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 2, UnitPrice: 25.00, Discount: 0.1},
		{OrderItemID: 2, OrderID: 1001, ProductID: 3, Quantity: 1, UnitPrice: 10.00, Discount: 1.5},
		{OrderItemID: 3, OrderID: 1001, ProductID: 3, Quantity: 4, UnitPrice: 7.50},
	}

	facts, rejects := builder.Transform(items)

	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if len(rejects) != 1 {
		t.Fatalf("got %d rejects, want 1", len(rejects))
	}
	var dq *DataQualityError
	if !errors.As(rejects[0], &dq) {
		t.Fatalf("reject is %T, want *DataQualityError", rejects[0])
	}

	if facts[0].OrderItemID != 1 || facts[1].OrderItemID != 3 {
		t.Errorf("surviving items = %d and %d, want 1 and 3",
			facts[0].OrderItemID, facts[1].OrderItemID)
	}
}

func TestFactBuilderDeterministic(t *testing.T) {
	items := []source.OrderItemRecord{
		{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 3, UnitPrice: 33.33, Discount: 0.05},
	}

	a, _ := NewFactBuilder(testOrders(), testLookups()).Transform(items)
	b, _ := NewFactBuilder(testOrders(), testLookups()).Transform(items)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("got %d and %d facts, want 1 each", len(a), len(b))
	}
	if a[0] != b[0] {
		t.Errorf("transform is not deterministic: %+v vs %+v", a[0], b[0])
	}
}

func TestFactBuilderUnknownChannel(t *testing.T) {
	orders := testOrders()
	orders[0].Channel = "carrier_pigeon"

	builder := NewFactBuilder(orders, testLookups())
	facts, rejects := builder.Transform([]source.OrderItemRecord{
		{OrderItemID: 1, OrderID: 1001, ProductID: 3, Quantity: 1, UnitPrice: 5},
	})

	if len(facts) != 0 || len(rejects) != 1 {
		t.Fatalf("got %d facts %d rejects, want 0 and 1", len(facts), len(rejects))
	}
	var ri *ReferentialIntegrityError
	if !errors.As(rejects[0], &ri) {
		t.Fatalf("reject is %T, want *ReferentialIntegrityError", rejects[0])
	}
	if ri.Dimension != "dim_channel" {
		t.Errorf("dimension = %q, want dim_channel", ri.Dimension)
	}
}
