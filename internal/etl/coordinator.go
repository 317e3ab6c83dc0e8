//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retaildw/retaildw/internal/logging"
	"github.com/retaildw/retaildw/internal/source"
	"github.com/retaildw/retaildw/internal/warehouse"
)

// Upsert statements. Dimension rows are append-or-match: an existing
// natural key is left untouched. Fact rows are keyed by
// (order_id, order_item_id) so re-running the same snapshot never
// duplicates them.
const (
	upsertDateSQL = `
        INSERT INTO dim_date (date_id, full_date, day, month, month_name,
                              quarter, year, week_of_year, day_of_week, is_weekend)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (date_id) DO NOTHING`

	upsertCustomerSQL = `
        INSERT INTO dim_customer (customer_id, first_name, last_name,
                                  full_name, email, city, segment)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (customer_id) DO NOTHING`

	upsertProductSQL = `
        INSERT INTO dim_product (product_id, product_name, category,
                                 unit_cost, supplier)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (product_id) DO NOTHING`

	upsertChannelSQL = `
        INSERT INTO dim_channel (channel_id, channel_name, channel_type)
        VALUES ($1, $2, $3)
        ON CONFLICT (channel_name) DO NOTHING`

	insertFactSQL = `
        INSERT INTO fact_sales (order_id, order_item_id, date_id, customer_id,
                                product_id, channel_id, quantity, unit_price,
                                unit_cost, discount, gross_revenue, net_revenue,
                                cogs, gross_margin, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (order_id, order_item_id) DO NOTHING`
)

// Coordinator orchestrates one transform-and-load run against the
// warehouse. All writes for a run happen inside a single transaction:
// either every validated row commits or none do.
type Coordinator struct {
	pool *pgxpool.Pool
}

// NewCoordinator creates a load coordinator over the given pool.
func NewCoordinator(pool *pgxpool.Pool) *Coordinator {
	return &Coordinator{pool: pool}
}

// Run transforms the source batch and loads it. Data quality and
// referential integrity rejections are counted in the summary and do not
// fail the run; any storage failure rolls the whole run back and returns
// a StorageError.
func (c *Coordinator) Run(ctx context.Context, batch *source.Batch) (*RunSummary, error) {
	summary := NewRunSummary()
	countMalformed(summary, batch)

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin transaction", Err: err}
	}
	// Rollback is a no-op once the transaction has committed.
	defer func() { _ = tx.Rollback(ctx) }()

	state, err := loadDimensionState(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := c.loadDates(ctx, tx, batch, state, summary); err != nil {
		return nil, err
	}
	if err := c.loadCustomers(ctx, tx, batch, state, summary); err != nil {
		return nil, err
	}
	if err := c.loadProducts(ctx, tx, batch, state, summary); err != nil {
		return nil, err
	}
	if err := c.loadChannels(ctx, tx, state, summary); err != nil {
		return nil, err
	}
	if err := c.loadFacts(ctx, tx, batch, state, summary); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit", Err: err}
	}

	summary.Finished = time.Now()
	return summary, nil
}

// dimensionState is the per-run surrogate-key state: what is already in
// the store plus what this run has accepted. It is built at run start
// and discarded at run end.
type dimensionState struct {
	lookups Lookups
}

// loadDimensionState reads the current dimension keys from the store.
func loadDimensionState(ctx context.Context, tx pgx.Tx) (*dimensionState, error) {
	state := &dimensionState{lookups: Lookups{
		Dates:        make(map[int]struct{}),
		Customers:    make(map[int]struct{}),
		ProductCosts: make(map[int]float64),
	}}

	rows, err := tx.Query(ctx, `SELECT date_id FROM dim_date`)
	if err != nil {
		return nil, &StorageError{Op: "read dim_date keys", Err: err}
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, &StorageError{Op: "read dim_date keys", Err: err}
		}
		state.lookups.Dates[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read dim_date keys", Err: err}
	}

	rows, err = tx.Query(ctx, `SELECT customer_id FROM dim_customer`)
	if err != nil {
		return nil, &StorageError{Op: "read dim_customer keys", Err: err}
	}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, &StorageError{Op: "read dim_customer keys", Err: err}
		}
		state.lookups.Customers[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read dim_customer keys", Err: err}
	}

	rows, err = tx.Query(ctx, `SELECT product_id, unit_cost FROM dim_product`)
	if err != nil {
		return nil, &StorageError{Op: "read dim_product keys", Err: err}
	}
	for rows.Next() {
		var id int
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			rows.Close()
			return nil, &StorageError{Op: "read dim_product keys", Err: err}
		}
		state.lookups.ProductCosts[id] = cost
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read dim_product keys", Err: err}
	}

	var channels []warehouse.ChannelRow
	rows, err = tx.Query(ctx, `SELECT channel_id, channel_name, channel_type FROM dim_channel`)
	if err != nil {
		return nil, &StorageError{Op: "read dim_channel", Err: err}
	}
	for rows.Next() {
		var ch warehouse.ChannelRow
		var typ string
		if err := rows.Scan(&ch.ChannelID, &ch.ChannelName, &typ); err != nil {
			rows.Close()
			return nil, &StorageError{Op: "read dim_channel", Err: err}
		}
		ch.ChannelType = warehouse.ChannelType(typ)
		channels = append(channels, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "read dim_channel", Err: err}
	}
	state.lookups.Channels = NewChannelsFrom(channels)

	return state, nil
}

func (c *Coordinator) loadDates(ctx context.Context, tx pgx.Tx, batch *source.Batch,
	state *dimensionState, summary *RunSummary) error {

	dateRows := BuildDateDim(batch.Orders)
	stats := summary.Table("dim_date")
	stats.Read = len(dateRows)

	b := &pgx.Batch{}
	for _, d := range dateRows {
		state.lookups.Dates[d.DateID] = struct{}{}
		b.Queue(upsertDateSQL, d.DateID, d.FullDate, d.Day, d.Month, d.MonthName,
			d.Quarter, d.Year, d.WeekOfYear, d.DayOfWeek, d.IsWeekend)
	}

	inserted, err := execBatch(ctx, tx, b)
	if err != nil {
		return &StorageError{Op: "load dim_date", Err: err}
	}
	stats.Loaded = inserted
	stats.Skipped = len(dateRows) - inserted
	return nil
}

func (c *Coordinator) loadCustomers(ctx context.Context, tx pgx.Tx, batch *source.Batch,
	state *dimensionState, summary *RunSummary) error {

	custRows, rejects := TransformCustomers(batch.Customers)
	stats := summary.Table("dim_customer")
	stats.Read += len(batch.Customers)
	countRejects(stats, rejects)

	b := &pgx.Batch{}
	for _, cu := range custRows {
		state.lookups.Customers[cu.CustomerID] = struct{}{}
		b.Queue(upsertCustomerSQL, cu.CustomerID, cu.FirstName, cu.LastName,
			cu.FullName, cu.Email, cu.City, string(cu.Segment))
	}

	inserted, err := execBatch(ctx, tx, b)
	if err != nil {
		return &StorageError{Op: "load dim_customer", Err: err}
	}
	stats.Loaded = inserted
	stats.Skipped = len(custRows) - inserted
	return nil
}

func (c *Coordinator) loadProducts(ctx context.Context, tx pgx.Tx, batch *source.Batch,
	state *dimensionState, summary *RunSummary) error {

	prodRows, rejects := TransformProducts(batch.Products)
	stats := summary.Table("dim_product")
	stats.Read += len(batch.Products)
	countRejects(stats, rejects)

	b := &pgx.Batch{}
	for _, p := range prodRows {
		// Existing rows win: the stored cost keeps pricing facts stable.
		if _, ok := state.lookups.ProductCosts[p.ProductID]; !ok {
			state.lookups.ProductCosts[p.ProductID] = p.UnitCost
		}
		b.Queue(upsertProductSQL, p.ProductID, p.ProductName, p.Category,
			p.UnitCost, p.Supplier)
	}

	inserted, err := execBatch(ctx, tx, b)
	if err != nil {
		return &StorageError{Op: "load dim_product", Err: err}
	}
	stats.Loaded = inserted
	stats.Skipped = len(prodRows) - inserted
	return nil
}

func (c *Coordinator) loadChannels(ctx context.Context, tx pgx.Tx,
	state *dimensionState, summary *RunSummary) error {

	channelRows := state.lookups.Channels.Rows()
	stats := summary.Table("dim_channel")
	stats.Read = len(channelRows)

	b := &pgx.Batch{}
	for _, ch := range channelRows {
		b.Queue(upsertChannelSQL, ch.ChannelID, ch.ChannelName, string(ch.ChannelType))
	}

	inserted, err := execBatch(ctx, tx, b)
	if err != nil {
		return &StorageError{Op: "load dim_channel", Err: err}
	}
	stats.Loaded = inserted
	stats.Skipped = len(channelRows) - inserted
	return nil
}

func (c *Coordinator) loadFacts(ctx context.Context, tx pgx.Tx, batch *source.Batch,
	state *dimensionState, summary *RunSummary) error {

	builder := NewFactBuilder(batch.Orders, state.lookups)
	facts, rejects := builder.Transform(batch.OrderItems)

	stats := summary.Table("fact_sales")
	stats.Read += len(batch.OrderItems)
	countRejects(stats, rejects)
	for _, err := range rejects {
		logging.Debug().Err(err).Msg("Rejected fact row")
	}

	b := &pgx.Batch{}
	for _, f := range facts {
		b.Queue(insertFactSQL, f.OrderID, f.OrderItemID, f.DateID, f.CustomerID,
			f.ProductID, f.ChannelID, f.Quantity, f.UnitPrice, f.UnitCost,
			f.Discount, f.GrossRevenue, f.NetRevenue, f.COGS, f.GrossMargin,
			string(f.Status))
	}

	inserted, err := execBatch(ctx, tx, b)
	if err != nil {
		return &StorageError{Op: "load fact_sales", Err: err}
	}
	stats.Loaded = inserted
	stats.Skipped = len(facts) - inserted
	return nil
}

// execBatch sends a batch inside the transaction and returns the number
// of rows actually inserted (conflict-skipped rows report zero).
func execBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}

	br := tx.SendBatch(ctx, b)
	inserted := 0
	for i := 0; i < b.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return inserted, err
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, br.Close()
}

func countRejects(stats *TableStats, rejects []error) {
	for _, err := range rejects {
		stats.Reject(rejectReason(err))
	}
}

// countMalformed folds extraction-time skips into the summary under the
// table each source file feeds.
func countMalformed(summary *RunSummary, batch *source.Batch) {
	fileTable := map[string]string{
		source.CustomersFile:  "dim_customer",
		source.ProductsFile:   "dim_product",
		source.OrdersFile:     "fact_sales",
		source.OrderItemsFile: "fact_sales",
	}
	for file, n := range batch.Malformed {
		table, ok := fileTable[file]
		if !ok {
			continue
		}
		stats := summary.Table(table)
		stats.Read += n
		for i := 0; i < n; i++ {
			stats.Reject(RejectMalformed)
		}
	}
}
