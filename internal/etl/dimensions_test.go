package etl

import (
	"errors"
	"testing"

	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

func TestTransformCustomers(t *testing.T) {
	recs := []source.CustomerRecord{
		{CustomerID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", City: "London", Segment: "Retail"},
		{CustomerID: 2, FirstName: "Tim", LastName: "Berners-Lee", Segment: "VIP"}, // invalid segment
		{CustomerID: 3, FirstName: "Grace", LastName: "Hopper", Segment: "Wholesale"},
		{CustomerID: 1, FirstName: "Ada", LastName: "Duplicate", Segment: "Online"}, // duplicate key
	}

	rows, rejects := TransformCustomers(recs)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if len(rejects) != 1 {
		t.Fatalf("got %d rejects, want 1", len(rejects))
	}

	var dq *DataQualityError
	if !errors.As(rejects[0], &dq) {
		t.Fatalf("reject is %T, want *DataQualityError", rejects[0])
	}
	if dq.Field != "segment" {
		t.Errorf("reject field = %q, want segment", dq.Field)
	}

	if rows[0].FullName != "Ada Lovelace" {
		t.Errorf("FullName = %q, want 'Ada Lovelace'", rows[0].FullName)
	}
	if rows[0].Segment != warehouse.SegmentRetail {
		t.Errorf("Segment = %q, want Retail", rows[0].Segment)
	}
	if rows[1].CustomerID != 3 {
		t.Errorf("second row CustomerID = %d, want 3", rows[1].CustomerID)
	}
}

func TestTransformProducts(t *testing.T) {
	recs := []source.ProductRecord{
		{ProductID: 1, ProductName: "Laptop", Category: "Electronics", UnitCost: 420.50, Supplier: "Supplier_1"},
		{ProductID: 2, ProductName: "Broken", Category: "Electronics", UnitCost: -5},
		{ProductID: 1, ProductName: "Laptop Again", Category: "Electronics", UnitCost: 1},
	}

	rows, rejects := TransformProducts(recs)

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].UnitCost != 420.50 {
		t.Errorf("UnitCost = %v, want 420.50", rows[0].UnitCost)
	}

	if len(rejects) != 1 {
		t.Fatalf("got %d rejects, want 1", len(rejects))
	}
	var dq *DataQualityError
	if !errors.As(rejects[0], &dq) {
		t.Fatalf("reject is %T, want *DataQualityError", rejects[0])
	}
	if dq.Field != "unit_cost" {
		t.Errorf("reject field = %q, want unit_cost", dq.Field)
	}
}

func TestChannelsSeeds(t *testing.T) {
	c := NewChannels()

	tests := []struct {
		name   string
		wantID int
	}{
		{"online", 1},
		{"mobile_app", 2},
		{"store", 3},
	}
	for _, tt := range tests {
		id, ok := c.Lookup(tt.name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", tt.name)
		}
		if id != tt.wantID {
			t.Errorf("Lookup(%q) = %d, want %d", tt.name, id, tt.wantID)
		}
	}

	if _, ok := c.Lookup("carrier_pigeon"); ok {
		t.Error("Lookup of unknown channel succeeded")
	}
}

func TestChannelsRegister(t *testing.T) {
	c := NewChannels()

	ch, err := c.Register("marketplace", warehouse.ChannelDigital)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if ch.ChannelID != 4 {
		t.Errorf("new channel id = %d, want 4", ch.ChannelID)
	}

	// Registering again reuses the existing surrogate key.
	again, err := c.Register("marketplace", warehouse.ChannelDigital)
	if err != nil {
		t.Fatalf("re-Register failed: %v", err)
	}
	if again.ChannelID != ch.ChannelID {
		t.Errorf("re-register minted new id %d, want %d", again.ChannelID, ch.ChannelID)
	}

	if _, err := c.Register("fax", "analog"); err == nil {
		t.Error("Register with invalid channel type succeeded")
	}
	var dq *DataQualityError
	_, err = c.Register("fax", "analog")
	if !errors.As(err, &dq) {
		t.Errorf("invalid type error is %T, want *DataQualityError", err)
	}
}

func TestNewChannelsFrom(t *testing.T) {
	existing := []warehouse.ChannelRow{
		{ChannelID: 1, ChannelName: "online", ChannelType: warehouse.ChannelDigital},
		{ChannelID: 7, ChannelName: "kiosk", ChannelType: warehouse.ChannelPhysical},
	}

	c := NewChannelsFrom(existing)

	// Existing rows keep their surrogate keys.
	if id, _ := c.Lookup("kiosk"); id != 7 {
		t.Errorf("kiosk id = %d, want 7", id)
	}
	// Missing seeds are added after the highest existing key.
	if _, ok := c.Lookup("mobile_app"); !ok {
		t.Error("seed mobile_app missing")
	}
	if _, ok := c.Lookup("store"); !ok {
		t.Error("seed store missing")
	}

	rows := c.Rows()
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ChannelID <= rows[i-1].ChannelID {
			t.Errorf("rows not ordered by id: %+v", rows)
		}
	}
}
