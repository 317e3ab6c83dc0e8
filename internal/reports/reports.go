//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package reports defines the fixed set of KPI queries that run against
// the star schema. The queries depend on the exact column names of the
// warehouse contract.
package reports

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgx query methods the runner needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Definition describes one KPI report.
type Definition struct {
	Name        string
	Description string
	SQL         string
}

// Definitions is the fixed report catalog, in display order.
var Definitions = []Definition{
	{
		Name:        "monthly_revenue",
		Description: "Net revenue and margin by month (completed sales)",
		SQL: `
            SELECT d.year, d.month, d.month_name,
                   ROUND(SUM(f.net_revenue), 2)  AS net_revenue,
                   ROUND(SUM(f.gross_margin), 2) AS gross_margin,
                   COUNT(*)                      AS line_items
            FROM fact_sales f
            JOIN dim_date d ON f.date_id = d.date_id
            WHERE f.status = 'completed'
            GROUP BY d.year, d.month, d.month_name
            ORDER BY d.year, d.month`,
	},
	{
		Name:        "revenue_by_channel",
		Description: "Net revenue split across sales channels",
		SQL: `
            SELECT c.channel_name, c.channel_type,
                   ROUND(SUM(f.net_revenue), 2) AS net_revenue,
                   SUM(f.quantity)              AS units_sold
            FROM fact_sales f
            JOIN dim_channel c ON f.channel_id = c.channel_id
            WHERE f.status = 'completed'
            GROUP BY c.channel_name, c.channel_type
            ORDER BY net_revenue DESC`,
	},
	{
		Name:        "top_products",
		Description: "Top 10 products by gross margin",
		SQL: `
            SELECT p.product_name, p.category,
                   ROUND(SUM(f.gross_margin), 2) AS gross_margin,
                   SUM(f.quantity)               AS units_sold
            FROM fact_sales f
            JOIN dim_product p ON f.product_id = p.product_id
            WHERE f.status = 'completed'
            GROUP BY p.product_name, p.category
            ORDER BY gross_margin DESC
            LIMIT 10`,
	},
	{
		Name:        "segment_performance",
		Description: "Revenue and order count by customer segment",
		SQL: `
            SELECT cu.segment,
                   ROUND(SUM(f.net_revenue), 2)  AS net_revenue,
                   COUNT(DISTINCT f.order_id)    AS orders,
                   COUNT(DISTINCT f.customer_id) AS customers
            FROM fact_sales f
            JOIN dim_customer cu ON f.customer_id = cu.customer_id
            WHERE f.status = 'completed'
            GROUP BY cu.segment
            ORDER BY net_revenue DESC`,
	},
	{
		Name:        "weekend_vs_weekday",
		Description: "Weekend versus weekday sales volume",
		SQL: `
            SELECT d.is_weekend,
                   ROUND(SUM(f.net_revenue), 2)           AS net_revenue,
                   COUNT(*)                               AS line_items,
                   ROUND(AVG(f.net_revenue), 2)           AS avg_line_revenue
            FROM fact_sales f
            JOIN dim_date d ON f.date_id = d.date_id
            WHERE f.status = 'completed'
            GROUP BY d.is_weekend
            ORDER BY d.is_weekend`,
	},
	{
		Name:        "quarterly_summary",
		Description: "Revenue, COGS and margin by year and quarter",
		SQL: `
            SELECT d.year, d.quarter,
                   ROUND(SUM(f.gross_revenue), 2) AS gross_revenue,
                   ROUND(SUM(f.net_revenue), 2)   AS net_revenue,
                   ROUND(SUM(f.cogs), 2)          AS cogs,
                   ROUND(SUM(f.gross_margin), 2)  AS gross_margin
            FROM fact_sales f
            JOIN dim_date d ON f.date_id = d.date_id
            WHERE f.status = 'completed'
            GROUP BY d.year, d.quarter
            ORDER BY d.year, d.quarter`,
	},
	{
		Name:        "order_status_breakdown",
		Description: "Completed, cancelled and returned order lines",
		SQL: `
            SELECT f.status,
                   COUNT(*)                     AS line_items,
                   ROUND(SUM(f.net_revenue), 2) AS net_revenue
            FROM fact_sales f
            GROUP BY f.status
            ORDER BY line_items DESC`,
	},
}

// Get returns a report definition by name.
func Get(name string) (Definition, error) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("unknown report: %s", name)
}

// Runner executes KPI reports and renders them as aligned text tables.
type Runner struct {
	db DB
}

// NewRunner creates a report runner over the given database.
func NewRunner(db DB) *Runner {
	return &Runner{db: db}
}

// Run executes the named report and writes its result table to w.
func (r *Runner) Run(ctx context.Context, name string, w io.Writer) error {
	def, err := Get(name)
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, def.SQL)
	if err != nil {
		return fmt.Errorf("report %s failed: %w", name, err)
	}
	defer rows.Close()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for i, fd := range rows.FieldDescriptions() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, fd.Name)
	}
	fmt.Fprintln(tw)

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("report %s failed: %w", name, err)
		}
		for i, v := range values {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprintf(tw, "%v", v)
		}
		fmt.Fprintln(tw)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("report %s failed: %w", name, err)
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "(%d rows)\n", count)
	return nil
}
