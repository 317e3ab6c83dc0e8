//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star schema of the retail analytics
// warehouse: row types for the dimension and fact tables, the closed
// enumerations they carry, and the DDL to create the schema.
package warehouse

import (
	"fmt"
	"time"
)

// Segment is the customer segment enumeration.
type Segment string

// Valid customer segments.
const (
	SegmentRetail    Segment = "Retail"
	SegmentWholesale Segment = "Wholesale"
	SegmentOnline    Segment = "Online"
)

// ParseSegment validates a raw segment value.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case SegmentRetail, SegmentWholesale, SegmentOnline:
		return Segment(s), nil
	}
	return "", fmt.Errorf("unknown customer segment: %q", s)
}

// ChannelType classifies a sales channel as digital or physical.
type ChannelType string

// Valid channel types.
const (
	ChannelDigital  ChannelType = "digital"
	ChannelPhysical ChannelType = "physical"
)

// ParseChannelType validates a raw channel type value.
func ParseChannelType(s string) (ChannelType, error) {
	switch ChannelType(s) {
	case ChannelDigital, ChannelPhysical:
		return ChannelType(s), nil
	}
	return "", fmt.Errorf("unknown channel type: %q", s)
}

// OrderStatus is the order lifecycle status enumeration.
type OrderStatus string

// Valid order statuses.
const (
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// ParseOrderStatus validates a raw order status value.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusCompleted, StatusCancelled, StatusReturned:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status: %q", s)
}

// DateRow is one row of dim_date. DateID is a deterministic yyyymmdd
// encoding of FullDate; every other field is derived from FullDate.
// Week numbering follows ISO-8601.
type DateRow struct {
	DateID     int
	FullDate   time.Time
	Day        int
	Month      int
	MonthName  string
	Quarter    int
	Year       int
	WeekOfYear int
	DayOfWeek  string
	IsWeekend  bool
}

// CustomerRow is one row of dim_customer. CustomerID is the source
// natural key passed through as the surrogate key.
type CustomerRow struct {
	CustomerID int
	FirstName  string
	LastName   string
	FullName   string
	Email      string
	City       string
	Segment    Segment
}

// ProductRow is one row of dim_product. ProductID is the source natural
// key passed through as the surrogate key.
type ProductRow struct {
	ProductID   int
	ProductName string
	Category    string
	UnitCost    float64
	Supplier    string
}

// ChannelRow is one row of dim_channel. ChannelID is assigned when the
// channel is first seen; ChannelName is the natural key.
type ChannelRow struct {
	ChannelID   int
	ChannelName string
	ChannelType ChannelType
}

// SeedChannels are the channels every warehouse starts with. They are
// inserted on schema creation and re-asserted at the start of each load
// run without ever being duplicated.
var SeedChannels = []ChannelRow{
	{ChannelID: 1, ChannelName: "online", ChannelType: ChannelDigital},
	{ChannelID: 2, ChannelName: "mobile_app", ChannelType: ChannelDigital},
	{ChannelID: 3, ChannelName: "store", ChannelType: ChannelPhysical},
}

// SaleFact is one row of fact_sales. The four derived measures are always
// recomputed from quantity, unit price, unit cost and discount; source
// subtotals are never trusted. (OrderID, OrderItemID) is the idempotence
// key for loads.
type SaleFact struct {
	OrderID      int
	OrderItemID  int
	DateID       int
	CustomerID   int
	ProductID    int
	ChannelID    int
	Quantity     int
	UnitPrice    float64
	UnitCost     float64
	Discount     float64
	GrossRevenue float64
	NetRevenue   float64
	COGS         float64
	GrossMargin  float64
	Status       OrderStatus
}
