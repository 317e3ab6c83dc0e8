//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package gen writes synthetic retail source data as CSV files: the
// upstream feed consumed by the load pipeline.
package gen

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/retaildw/retaildw/internal/datagen"
	"github.com/retaildw/retaildw/internal/logging"
	"github.com/retaildw/retaildw/internal/source"
)

// Catalog of product names per category.
var productCatalog = map[string][]string{
	"Electronics":   {"Laptop", "Smartphone", "Tablet", "Headphones", "Smartwatch", "Keyboard", "Monitor"},
	"Clothing":      {"T-Shirt", "Jeans", "Jacket", "Sneakers", "Dress", "Hoodie", "Shorts"},
	"Home & Garden": {"Blender", "Coffee Maker", "Vacuum", "Lamp", "Pillow", "Rug", "Plant Pot"},
	"Sports":        {"Running Shoes", "Yoga Mat", "Bicycle", "Dumbbell", "Tennis Racket", "Backpack"},
	"Books":         {"Fiction Novel", "Self-Help", "Cookbook", "Science", "Biography", "Children Book"},
}

// categoryOrder keeps product generation deterministic under a seed.
var categoryOrder = []string{"Electronics", "Clothing", "Home & Garden", "Sports", "Books"}

var (
	segments  = []string{"Retail", "Wholesale", "Online"}
	statuses  = []string{"completed", "returned", "cancelled"}
	statusWts = []int{3, 1, 1}
	channels  = []string{"online", "store", "mobile_app"}
	chanWts   = []int{2, 2, 1}
	payments  = []string{"credit_card", "debit_card", "paypal", "bank_transfer", "cash"}
	discounts = []float64{0, 0, 0, 0.05, 0.10, 0.15}
)

// Config controls synthetic data generation.
type Config struct {
	Dir       string
	Customers int
	Products  int
	Orders    int
	Seed      uint64
	StartDate time.Time
	EndDate   time.Time
}

// Generator writes the four source CSV files.
type Generator struct {
	faker *datagen.Faker
	cfg   Config
}

// New creates a generator. A zero seed yields time-based output.
func New(cfg Config) *Generator {
	var f *datagen.Faker
	if cfg.Seed != 0 {
		f = datagen.NewFakerWithSeed(cfg.Seed)
	} else {
		f = datagen.NewFaker()
	}
	return &Generator{faker: f, cfg: cfg}
}

// Generate writes customers.csv, products.csv, orders.csv and
// order_items.csv into the configured directory.
func (g *Generator) Generate() error {
	if err := os.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	customers := g.buildCustomers()
	if err := g.writeCustomers(customers); err != nil {
		return err
	}

	products := g.buildProducts()
	if err := g.writeProducts(products); err != nil {
		return err
	}

	orders, items := g.buildOrders(customers, products)
	if err := g.writeOrders(orders); err != nil {
		return err
	}
	if err := g.writeOrderItems(items); err != nil {
		return err
	}

	logging.Info().
		Int("customers", len(customers)).
		Int("products", len(products)).
		Int("orders", len(orders)).
		Int("order_items", len(items)).
		Str("dir", g.cfg.Dir).
		Msg("Source data generated")

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (g *Generator) buildCustomers() []source.CustomerRecord {
	customers := make([]source.CustomerRecord, 0, g.cfg.Customers)
	regStart := g.cfg.StartDate.AddDate(-2, 0, 0)
	for i := 1; i <= g.cfg.Customers; i++ {
		customers = append(customers, source.CustomerRecord{
			CustomerID:   i,
			FirstName:    g.faker.FirstName(),
			LastName:     g.faker.LastName(),
			Email:        fmt.Sprintf("customer%d@example.com", i),
			City:         g.faker.City(),
			Segment:      datagen.Choose(g.faker, segments),
			RegisteredAt: g.faker.DateRange(regStart, g.cfg.StartDate),
		})
	}
	return customers
}

func (g *Generator) buildProducts() []source.ProductRecord {
	products := make([]source.ProductRecord, 0, g.cfg.Products)
	pid := 1
	for pid <= g.cfg.Products {
		for _, category := range categoryOrder {
			for _, name := range productCatalog[category] {
				price := g.faker.Price(8, 900)
				cost := round2(price * g.faker.Float64(0.4, 0.65))
				products = append(products, source.ProductRecord{
					ProductID:   pid,
					ProductName: name,
					Category:    category,
					UnitPrice:   price,
					UnitCost:    cost,
					Supplier:    fmt.Sprintf("Supplier_%d", g.faker.Int(1, 15)),
				})
				pid++
				if pid > g.cfg.Products {
					return products
				}
			}
		}
	}
	return products
}

func (g *Generator) buildOrders(customers []source.CustomerRecord,
	products []source.ProductRecord) ([]source.OrderRecord, []source.OrderItemRecord) {

	orders := make([]source.OrderRecord, 0, g.cfg.Orders)
	var items []source.OrderItemRecord
	itemID := 1

	for oid := 1; oid <= g.cfg.Orders; oid++ {
		customer := datagen.Choose(g.faker, customers)
		orderDate := g.faker.DateRange(g.cfg.StartDate, g.cfg.EndDate)
		nItems := g.faker.Int(1, 5)

		orderTotal := 0.0
		for i := 0; i < nItems; i++ {
			product := datagen.Choose(g.faker, products)
			qty := g.faker.Int(1, 4)
			discount := datagen.Choose(g.faker, discounts)
			subtotal := round2(product.UnitPrice * float64(qty) * (1 - discount))
			orderTotal += subtotal

			items = append(items, source.OrderItemRecord{
				OrderItemID: itemID,
				OrderID:     oid,
				ProductID:   product.ProductID,
				Quantity:    qty,
				UnitPrice:   product.UnitPrice,
				Discount:    discount,
				Subtotal:    subtotal,
			})
			itemID++
		}

		orders = append(orders, source.OrderRecord{
			OrderID:       oid,
			CustomerID:    customer.CustomerID,
			OrderDate:     orderDate,
			Status:        datagen.ChooseWeighted(g.faker, statuses, statusWts),
			Channel:       datagen.ChooseWeighted(g.faker, channels, chanWts),
			PaymentMethod: datagen.Choose(g.faker, payments),
			OrderTotal:    round2(orderTotal),
		})
	}

	return orders, items
}

func (g *Generator) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(g.cfg.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	logging.Debug().Str("file", name).Int("rows", len(rows)).Msg("Wrote source file")
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (g *Generator) writeCustomers(customers []source.CustomerRecord) error {
	header := []string{"customer_id", "first_name", "last_name", "email", "city", "segment", "registered_at"}
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			strconv.Itoa(c.CustomerID), c.FirstName, c.LastName, c.Email,
			c.City, c.Segment, c.RegisteredAt.Format(source.DateFormat),
		})
	}
	return g.writeCSV(source.CustomersFile, header, rows)
}

func (g *Generator) writeProducts(products []source.ProductRecord) error {
	header := []string{"product_id", "product_name", "category", "unit_price", "unit_cost", "supplier"}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			strconv.Itoa(p.ProductID), p.ProductName, p.Category,
			money(p.UnitPrice), money(p.UnitCost), p.Supplier,
		})
	}
	return g.writeCSV(source.ProductsFile, header, rows)
}

func (g *Generator) writeOrders(orders []source.OrderRecord) error {
	header := []string{"order_id", "customer_id", "order_date", "status", "channel", "payment_method", "order_total"}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			strconv.Itoa(o.OrderID), strconv.Itoa(o.CustomerID),
			o.OrderDate.Format(source.DateFormat), o.Status, o.Channel,
			o.PaymentMethod, money(o.OrderTotal),
		})
	}
	return g.writeCSV(source.OrdersFile, header, rows)
}

func (g *Generator) writeOrderItems(items []source.OrderItemRecord) error {
	header := []string{"order_item_id", "order_id", "product_id", "quantity", "unit_price", "discount", "subtotal"}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(it.OrderItemID), strconv.Itoa(it.OrderID),
			strconv.Itoa(it.ProductID), strconv.Itoa(it.Quantity),
			money(it.UnitPrice), money(it.Discount), money(it.Subtotal),
		})
	}
	return g.writeCSV(source.OrderItemsFile, header, rows)
}
