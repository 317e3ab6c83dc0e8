//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"fmt"
	"math"

	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

// Lookups is the per-run dimension state the fact transformer resolves
// against. The sets hold every surrogate key valid for this run, i.e.
// keys already persisted plus keys accepted by this run's dimension
// loaders.
type Lookups struct {
	// Dates holds every date_id present in dim_date.
	Dates map[int]struct{}

	// Customers holds every customer_id present in dim_customer.
	Customers map[int]struct{}

	// ProductCosts maps product_id to unit cost.
	ProductCosts map[int]float64

	// Channels resolves channel names to surrogate keys.
	Channels *Channels
}

// FactBuilder transforms order items into fact_sales rows. It is pure:
// the same item with the same dimension state always yields identical
// output.
type FactBuilder struct {
	lookups Lookups
	orders  map[int]source.OrderRecord
}

// NewFactBuilder creates a fact builder over the given orders and
// dimension state.
func NewFactBuilder(orders []source.OrderRecord, lookups Lookups) *FactBuilder {
	idx := make(map[int]source.OrderRecord, len(orders))
	for _, o := range orders {
		if _, ok := idx[o.OrderID]; !ok {
			idx[o.OrderID] = o
		}
	}
	return &FactBuilder{lookups: lookups, orders: idx}
}

// round4 rounds a measure to 4 decimal places. All derived measures are
// rounded the same way so gross_margin equals net_revenue - cogs exactly.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Transform emits one SaleFact per valid order item. A row that fails
// key resolution or a domain constraint is rejected with a typed error
// and the batch continues.
func (b *FactBuilder) Transform(items []source.OrderItemRecord) ([]warehouse.SaleFact, []error) {
	facts := make([]warehouse.SaleFact, 0, len(items))
	var rejects []error

	for _, item := range items {
		fact, err := b.transformItem(item)
		if err != nil {
			rejects = append(rejects, err)
			continue
		}
		facts = append(facts, fact)
	}

	return facts, rejects
}

func (b *FactBuilder) transformItem(item source.OrderItemRecord) (warehouse.SaleFact, error) {
	var zero warehouse.SaleFact

	order, ok := b.orders[item.OrderID]
	if !ok {
		return zero, &ReferentialIntegrityError{Dimension: "orders", Key: item.OrderID}
	}

	status, err := warehouse.ParseOrderStatus(order.Status)
	if err != nil {
		return zero, &DataQualityError{
			Table: "fact_sales", Field: "status", Value: order.Status,
			Reason: "not one of completed, cancelled, returned",
		}
	}

	if item.Quantity <= 0 {
		return zero, &DataQualityError{
			Table: "fact_sales", Field: "quantity", Value: item.Quantity,
			Reason: "must be positive",
		}
	}
	if item.UnitPrice < 0 {
		return zero, &DataQualityError{
			Table: "fact_sales", Field: "unit_price", Value: item.UnitPrice,
			Reason: "must be non-negative",
		}
	}
	if item.Discount < 0 || item.Discount > 1 {
		return zero, &DataQualityError{
			Table: "fact_sales", Field: "discount", Value: item.Discount,
			Reason: "must be between 0 and 1",
		}
	}

	dateID := DateID(order.OrderDate)
	if _, ok := b.lookups.Dates[dateID]; !ok {
		return zero, &ReferentialIntegrityError{Dimension: "dim_date", Key: dateID}
	}
	if _, ok := b.lookups.Customers[order.CustomerID]; !ok {
		return zero, &ReferentialIntegrityError{Dimension: "dim_customer", Key: order.CustomerID}
	}
	unitCost, ok := b.lookups.ProductCosts[item.ProductID]
	if !ok {
		return zero, &ReferentialIntegrityError{Dimension: "dim_product", Key: item.ProductID}
	}
	channelID, ok := b.lookups.Channels.Lookup(order.Channel)
	if !ok {
		return zero, &ReferentialIntegrityError{
			Dimension: "dim_channel",
			Key:       fmt.Sprintf("%s (order %d)", order.Channel, order.OrderID),
		}
	}

	gross := round4(float64(item.Quantity) * item.UnitPrice)
	net := round4(gross * (1 - item.Discount))
	cogs := round4(float64(item.Quantity) * unitCost)
	margin := round4(net - cogs)

	return warehouse.SaleFact{
		OrderID:      item.OrderID,
		OrderItemID:  item.OrderItemID,
		DateID:       dateID,
		CustomerID:   order.CustomerID,
		ProductID:    item.ProductID,
		ChannelID:    channelID,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		UnitCost:     unitCost,
		Discount:     item.Discount,
		GrossRevenue: gross,
		NetRevenue:   net,
		COGS:         cogs,
		GrossMargin:  margin,
		Status:       status,
	}, nil
}
