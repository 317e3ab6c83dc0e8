//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the star schema. Column names are a stable contract with
// the downstream KPI queries and must not change.
const createSchemaSQL = `
-- Date Dimension
CREATE TABLE IF NOT EXISTS dim_date (
    date_id      INTEGER PRIMARY KEY,
    full_date    DATE NOT NULL UNIQUE,
    day          INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    month_name   VARCHAR(9) NOT NULL,
    quarter      INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
    year         INTEGER NOT NULL,
    week_of_year INTEGER NOT NULL,
    day_of_week  VARCHAR(9) NOT NULL,
    is_weekend   BOOLEAN NOT NULL
);

-- Customer Dimension
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_id INTEGER PRIMARY KEY,
    first_name  VARCHAR(50) NOT NULL,
    last_name   VARCHAR(50) NOT NULL,
    full_name   VARCHAR(101) NOT NULL,
    email       VARCHAR(100),
    city        VARCHAR(60),
    segment     VARCHAR(10) NOT NULL
        CHECK (segment IN ('Retail', 'Wholesale', 'Online'))
);

-- Product Dimension
CREATE TABLE IF NOT EXISTS dim_product (
    product_id   INTEGER PRIMARY KEY,
    product_name VARCHAR(100) NOT NULL,
    category     VARCHAR(50) NOT NULL,
    unit_cost    NUMERIC(10,2) NOT NULL CHECK (unit_cost >= 0),
    supplier     VARCHAR(50)
);

-- Channel Dimension
CREATE TABLE IF NOT EXISTS dim_channel (
    channel_id   INTEGER PRIMARY KEY,
    channel_name VARCHAR(30) NOT NULL UNIQUE,
    channel_type VARCHAR(10) NOT NULL
        CHECK (channel_type IN ('digital', 'physical'))
);

-- Sales Fact
CREATE TABLE IF NOT EXISTS fact_sales (
    sale_id       BIGSERIAL PRIMARY KEY,
    order_id      INTEGER NOT NULL,
    order_item_id INTEGER NOT NULL,
    date_id       INTEGER NOT NULL REFERENCES dim_date(date_id),
    customer_id   INTEGER NOT NULL REFERENCES dim_customer(customer_id),
    product_id    INTEGER NOT NULL REFERENCES dim_product(product_id),
    channel_id    INTEGER NOT NULL REFERENCES dim_channel(channel_id),
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    unit_price    NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
    unit_cost     NUMERIC(10,2) NOT NULL CHECK (unit_cost >= 0),
    discount      NUMERIC(4,2) NOT NULL DEFAULT 0
        CHECK (discount BETWEEN 0 AND 1),
    gross_revenue NUMERIC(12,4) NOT NULL,
    net_revenue   NUMERIC(12,4) NOT NULL,
    cogs          NUMERIC(12,4) NOT NULL,
    gross_margin  NUMERIC(12,4) NOT NULL,
    status        VARCHAR(10) NOT NULL
        CHECK (status IN ('completed', 'cancelled', 'returned')),
    UNIQUE (order_id, order_item_id)
);

-- Indexes for the KPI queries
CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(date_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_channel ON fact_sales(channel_id);
CREATE INDEX IF NOT EXISTS idx_dim_date_year ON dim_date(year);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS dim_channel CASCADE;
DROP TABLE IF EXISTS dim_product CASCADE;
DROP TABLE IF EXISTS dim_customer CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
`

const seedChannelSQL = `
INSERT INTO dim_channel (channel_id, channel_name, channel_type)
VALUES ($1, $2, $3)
ON CONFLICT (channel_name) DO NOTHING
`

// CreateSchema creates the star schema and seeds the channel dimension.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createSchemaSQL); err != nil {
		return err
	}
	for _, ch := range SeedChannels {
		_, err := pool.Exec(ctx, seedChannelSQL,
			ch.ChannelID, ch.ChannelName, string(ch.ChannelType))
		if err != nil {
			return err
		}
	}
	return nil
}

// DropSchema drops the star schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
