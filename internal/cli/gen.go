package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/retaildw/retaildw/internal/gen"
	"github.com/retaildw/retaildw/internal/source"
)

var (
	genCustomers int
	genProducts  int
	genOrders    int
	genSeed      uint64
	genStartDate string
	genEndDate   string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate synthetic source CSV files",
	Long: `Generate synthetic retail source data (customers, products, orders,
order items) as CSV files in the data directory. These files are the
upstream input of the load command.

Example:
  retaildw gen --data-dir data --orders 3000 --seed 42`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().IntVar(&genCustomers, "customers", 0,
		"number of customers to generate")
	genCmd.Flags().IntVar(&genProducts, "products", 0,
		"number of products to generate")
	genCmd.Flags().IntVar(&genOrders, "orders", 0,
		"number of orders to generate")
	genCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output (0 = time-based)")
	genCmd.Flags().StringVar(&genStartDate, "start-date", "",
		"earliest order date (YYYY-MM-DD)")
	genCmd.Flags().StringVar(&genEndDate, "end-date", "",
		"latest order date (YYYY-MM-DD)")
}

func runGen(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if genCustomers > 0 {
		cfg.Gen.Customers = genCustomers
	}
	if genProducts > 0 {
		cfg.Gen.Products = genProducts
	}
	if genOrders > 0 {
		cfg.Gen.Orders = genOrders
	}
	if genSeed != 0 {
		cfg.Gen.Seed = genSeed
	}
	if genStartDate != "" {
		cfg.Gen.StartDate = genStartDate
	}
	if genEndDate != "" {
		cfg.Gen.EndDate = genEndDate
	}

	if err := cfg.ValidateGen(); err != nil {
		return err
	}

	start, err := time.Parse(source.DateFormat, cfg.Gen.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(source.DateFormat, cfg.Gen.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	generator := gen.New(gen.Config{
		Dir:       cfg.DataDir,
		Customers: cfg.Gen.Customers,
		Products:  cfg.Gen.Products,
		Orders:    cfg.Gen.Orders,
		Seed:      cfg.Gen.Seed,
		StartDate: start,
		EndDate:   end,
	})

	return generator.Generate()
}
