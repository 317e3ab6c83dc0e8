//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for retaildw.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for retaildw.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// DataDir is the directory holding the source CSV files.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Init holds configuration for the init subcommand.
	Init InitConfig `mapstructure:"init"`

	// Gen holds configuration for the gen subcommand.
	Gen GenConfig `mapstructure:"gen"`
}

// InitConfig holds configuration for schema initialization.
type InitConfig struct {
	// DropExisting drops the existing schema before initialization.
	DropExisting bool `mapstructure:"drop_existing"`
}

// GenConfig holds configuration for synthetic source data generation.
type GenConfig struct {
	// Customers is the number of customers to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of products to generate.
	Products int `mapstructure:"products"`

	// Orders is the number of orders to generate.
	Orders int `mapstructure:"orders"`

	// Seed makes generation reproducible. Zero means time-based.
	Seed uint64 `mapstructure:"seed"`

	// StartDate is the earliest order date (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`

	// EndDate is the latest order date (YYYY-MM-DD).
	EndDate string `mapstructure:"end_date"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		LogLevel: "info",
		Gen: GenConfig{
			Customers: 500,
			Products:  80,
			Orders:    3000,
			StartDate: "2022-01-01",
			EndDate:   "2024-12-31",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./retaildw.yaml
// 3. ~/.config/retaildw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("retaildw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "retaildw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	return nil
}

// ValidateGen checks configuration required for the gen command.
func (c *Config) ValidateGen() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Gen.Customers < 1 {
		return fmt.Errorf("customers must be at least 1")
	}
	if c.Gen.Products < 1 {
		return fmt.Errorf("products must be at least 1")
	}
	if c.Gen.Orders < 1 {
		return fmt.Errorf("orders must be at least 1")
	}
	start, err := time.Parse("2006-01-02", c.Gen.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.Gen.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	return nil
}
