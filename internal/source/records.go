//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads the raw retail source data: CSV extracts of
// customers, products, orders and order items produced by an upstream
// system (or by the gen command).
package source

import "time"

// CustomerRecord is a raw customer as extracted from customers.csv.
type CustomerRecord struct {
	CustomerID   int
	FirstName    string
	LastName     string
	Email        string
	City         string
	Segment      string
	RegisteredAt time.Time
}

// ProductRecord is a raw product as extracted from products.csv.
// UnitPrice is the list price used by the upstream order generator; the
// warehouse only persists UnitCost.
type ProductRecord struct {
	ProductID   int
	ProductName string
	Category    string
	UnitPrice   float64
	UnitCost    float64
	Supplier    string
}

// OrderRecord is a raw order header as extracted from orders.csv.
type OrderRecord struct {
	OrderID       int
	CustomerID    int
	OrderDate     time.Time
	Status        string
	Channel       string
	PaymentMethod string
	OrderTotal    float64
}

// OrderItemRecord is a raw order line as extracted from order_items.csv.
// Subtotal is informational only; the fact transformer recomputes all
// derived measures.
type OrderItemRecord struct {
	OrderItemID int
	OrderID     int
	ProductID   int
	Quantity    int
	UnitPrice   float64
	Discount    float64
	Subtotal    float64
}

// Batch is one full source snapshot.
type Batch struct {
	Customers  []CustomerRecord
	Products   []ProductRecord
	Orders     []OrderRecord
	OrderItems []OrderItemRecord

	// Malformed counts rows per file that could not be parsed and were
	// skipped during extraction.
	Malformed map[string]int
}
