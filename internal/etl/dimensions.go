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
	"strings"

	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

// TransformCustomers maps raw customer records to dim_customer rows.
// Records with an invalid segment are rejected; duplicate natural keys
// keep the first occurrence.
func TransformCustomers(recs []source.CustomerRecord) ([]warehouse.CustomerRow, []error) {
	rows := make([]warehouse.CustomerRow, 0, len(recs))
	var rejects []error
	seen := make(map[int]struct{}, len(recs))

	for _, c := range recs {
		if _, ok := seen[c.CustomerID]; ok {
			continue
		}
		seg, err := warehouse.ParseSegment(c.Segment)
		if err != nil {
			rejects = append(rejects, &DataQualityError{
				Table:  "dim_customer",
				Field:  "segment",
				Value:  c.Segment,
				Reason: "not one of Retail, Wholesale, Online",
			})
			continue
		}
		seen[c.CustomerID] = struct{}{}
		rows = append(rows, warehouse.CustomerRow{
			CustomerID: c.CustomerID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			FullName:   strings.TrimSpace(c.FirstName + " " + c.LastName),
			Email:      c.Email,
			City:       c.City,
			Segment:    seg,
		})
	}

	return rows, rejects
}

// TransformProducts maps raw product records to dim_product rows.
// Records with a negative unit cost are rejected; duplicate natural keys
// keep the first occurrence.
func TransformProducts(recs []source.ProductRecord) ([]warehouse.ProductRow, []error) {
	rows := make([]warehouse.ProductRow, 0, len(recs))
	var rejects []error
	seen := make(map[int]struct{}, len(recs))

	for _, p := range recs {
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		if p.UnitCost < 0 {
			rejects = append(rejects, &DataQualityError{
				Table:  "dim_product",
				Field:  "unit_cost",
				Value:  p.UnitCost,
				Reason: "must be non-negative",
			})
			continue
		}
		seen[p.ProductID] = struct{}{}
		rows = append(rows, warehouse.ProductRow{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Category:    p.Category,
			UnitCost:    p.UnitCost,
			Supplier:    p.Supplier,
		})
	}

	return rows, rejects
}

// Channels is the per-run channel dimension state: a name-keyed lookup
// with auto-assigned surrogate keys. It is built fresh at the start of a
// run from the seed set plus any rows already in the store, and
// discarded when the run ends.
type Channels struct {
	byName map[string]warehouse.ChannelRow
	nextID int
}

// NewChannels creates channel state holding the fixed seed channels.
func NewChannels() *Channels {
	c := &Channels{byName: make(map[string]warehouse.ChannelRow), nextID: 1}
	for _, ch := range warehouse.SeedChannels {
		c.add(ch)
	}
	return c
}

// NewChannelsFrom creates channel state from rows already persisted,
// then asserts the seed set on top. Seeds never displace existing rows.
func NewChannelsFrom(existing []warehouse.ChannelRow) *Channels {
	c := &Channels{byName: make(map[string]warehouse.ChannelRow), nextID: 1}
	for _, ch := range existing {
		c.add(ch)
	}
	for _, ch := range warehouse.SeedChannels {
		if _, ok := c.byName[ch.ChannelName]; !ok {
			ch.ChannelID = c.nextID
			c.add(ch)
		}
	}
	return c
}

func (c *Channels) add(ch warehouse.ChannelRow) {
	c.byName[ch.ChannelName] = ch
	if ch.ChannelID >= c.nextID {
		c.nextID = ch.ChannelID + 1
	}
}

// Register returns the surrogate key for a channel name, minting a new
// one on first sight. An invalid channel type is a data quality error.
func (c *Channels) Register(name string, typ warehouse.ChannelType) (warehouse.ChannelRow, error) {
	if ch, ok := c.byName[name]; ok {
		return ch, nil
	}
	if _, err := warehouse.ParseChannelType(string(typ)); err != nil {
		return warehouse.ChannelRow{}, &DataQualityError{
			Table:  "dim_channel",
			Field:  "channel_type",
			Value:  string(typ),
			Reason: "not one of digital, physical",
		}
	}
	ch := warehouse.ChannelRow{ChannelID: c.nextID, ChannelName: name, ChannelType: typ}
	c.add(ch)
	return ch, nil
}

// Lookup resolves a channel name to its surrogate key.
func (c *Channels) Lookup(name string) (int, bool) {
	ch, ok := c.byName[name]
	return ch.ChannelID, ok
}

// Rows returns all channel rows ordered by surrogate key.
func (c *Channels) Rows() []warehouse.ChannelRow {
	rows := make([]warehouse.ChannelRow, 0, len(c.byName))
	for _, ch := range c.byName {
		rows = append(rows, ch)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChannelID < rows[j].ChannelID })
	return rows
}
