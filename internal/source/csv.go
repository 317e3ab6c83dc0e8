//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/retaildw/retaildw/internal/logging"
)

// Source file names within the data directory.
const (
	CustomersFile  = "customers.csv"
	ProductsFile   = "products.csv"
	OrdersFile     = "orders.csv"
	OrderItemsFile = "order_items.csv"
)

// DateFormat is the calendar date layout used in the source files.
const DateFormat = "2006-01-02"

// LoadDir reads the four source CSV files from dir. A missing or
// unreadable file is a fatal extraction error; an individual row that
// fails to parse is skipped, logged, and counted in Batch.Malformed.
func LoadDir(dir string) (*Batch, error) {
	batch := &Batch{Malformed: make(map[string]int)}

	if err := readFile(dir, CustomersFile, batch, parseCustomer); err != nil {
		return nil, err
	}
	if err := readFile(dir, ProductsFile, batch, parseProduct); err != nil {
		return nil, err
	}
	if err := readFile(dir, OrdersFile, batch, parseOrder); err != nil {
		return nil, err
	}
	if err := readFile(dir, OrderItemsFile, batch, parseOrderItem); err != nil {
		return nil, err
	}

	logging.Info().
		Int("customers", len(batch.Customers)).
		Int("products", len(batch.Products)).
		Int("orders", len(batch.Orders)).
		Int("order_items", len(batch.OrderItems)).
		Msg("Extracted source files")

	return batch, nil
}

// row gives a parse function named access to one CSV record.
type row struct {
	header map[string]int
	fields []string
}

func (r row) get(col string) (string, error) {
	idx, ok := r.header[col]
	if !ok {
		return "", fmt.Errorf("missing column %q", col)
	}
	if idx >= len(r.fields) {
		return "", fmt.Errorf("short row, no value for %q", col)
	}
	return r.fields[idx], nil
}

func (r row) getInt(col string) (int, error) {
	s, err := r.get(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return v, nil
}

func (r row) getFloat(col string) (float64, error) {
	s, err := r.get(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return v, nil
}

func (r row) getDate(col string) (time.Time, error) {
	s, err := r.get(col)
	if err != nil {
		return time.Time{}, err
	}
	v, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: %w", col, err)
	}
	return v, nil
}

func readFile(dir, name string, batch *Batch, parse func(row, *Batch) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // short rows handled per column

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("source file %s has no header", name)
	}

	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[col] = i
	}

	for i, fields := range records[1:] {
		if err := parse(row{header: header, fields: fields}, batch); err != nil {
			batch.Malformed[name]++
			logging.Warn().
				Str("file", name).
				Int("line", i+2).
				Err(err).
				Msg("Skipping malformed row")
		}
	}

	return nil
}

func parseCustomer(r row, batch *Batch) error {
	var c CustomerRecord
	var err error
	if c.CustomerID, err = r.getInt("customer_id"); err != nil {
		return err
	}
	if c.FirstName, err = r.get("first_name"); err != nil {
		return err
	}
	if c.LastName, err = r.get("last_name"); err != nil {
		return err
	}
	if c.Email, err = r.get("email"); err != nil {
		return err
	}
	if c.City, err = r.get("city"); err != nil {
		return err
	}
	if c.Segment, err = r.get("segment"); err != nil {
		return err
	}
	if c.RegisteredAt, err = r.getDate("registered_at"); err != nil {
		return err
	}
	batch.Customers = append(batch.Customers, c)
	return nil
}

func parseProduct(r row, batch *Batch) error {
	var p ProductRecord
	var err error
	if p.ProductID, err = r.getInt("product_id"); err != nil {
		return err
	}
	if p.ProductName, err = r.get("product_name"); err != nil {
		return err
	}
	if p.Category, err = r.get("category"); err != nil {
		return err
	}
	if p.UnitPrice, err = r.getFloat("unit_price"); err != nil {
		return err
	}
	if p.UnitCost, err = r.getFloat("unit_cost"); err != nil {
		return err
	}
	if p.Supplier, err = r.get("supplier"); err != nil {
		return err
	}
	batch.Products = append(batch.Products, p)
	return nil
}

func parseOrder(r row, batch *Batch) error {
	var o OrderRecord
	var err error
	if o.OrderID, err = r.getInt("order_id"); err != nil {
		return err
	}
	if o.CustomerID, err = r.getInt("customer_id"); err != nil {
		return err
	}
	if o.OrderDate, err = r.getDate("order_date"); err != nil {
		return err
	}
	if o.Status, err = r.get("status"); err != nil {
		return err
	}
	if o.Channel, err = r.get("channel"); err != nil {
		return err
	}
	if o.PaymentMethod, err = r.get("payment_method"); err != nil {
		return err
	}
	if o.OrderTotal, err = r.getFloat("order_total"); err != nil {
		return err
	}
	batch.Orders = append(batch.Orders, o)
	return nil
}

func parseOrderItem(r row, batch *Batch) error {
	var it OrderItemRecord
	var err error
	if it.OrderItemID, err = r.getInt("order_item_id"); err != nil {
		return err
	}
	if it.OrderID, err = r.getInt("order_id"); err != nil {
		return err
	}
	if it.ProductID, err = r.getInt("product_id"); err != nil {
		return err
	}
	if it.Quantity, err = r.getInt("quantity"); err != nil {
		return err
	}
	if it.UnitPrice, err = r.getFloat("unit_price"); err != nil {
		return err
	}
	if it.Discount, err = r.getFloat("discount"); err != nil {
		return err
	}
	if it.Subtotal, err = r.getFloat("subtotal"); err != nil {
		return err
	}
	batch.OrderItems = append(batch.OrderItems, it)
	return nil
}
