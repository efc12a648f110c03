package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TargetProduct != "pink morsel" {
		t.Errorf("product: got %q, want %q", cfg.TargetProduct, "pink morsel")
	}
	if want := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC); !cfg.Cutoff().Equal(want) {
		t.Errorf("cutoff: got %s, want %s", cfg.Cutoff(), want)
	}
	if len(cfg.CurrencySymbols) != 3 || cfg.CurrencySymbols[1] != "£" {
		t.Errorf("currency symbols: got %v", cfg.CurrencySymbols)
	}
	if len(cfg.Regions) != 4 {
		t.Errorf("regions: got %v", cfg.Regions)
	}
	if cfg.HTTPAddr != ":8050" {
		t.Errorf("http addr: got %q", cfg.HTTPAddr)
	}
	if cfg.MovingAverageWindow != 7 || cfg.LoadConcurrency != 4 {
		t.Errorf("window/concurrency: got %d/%d", cfg.MovingAverageWindow, cfg.LoadConcurrency)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("INPUT_FILES", "a.csv,b.xlsx")
	t.Setenv("TARGET_PRODUCT", "gold morsel")
	t.Setenv("PRICE_HIKE_DATE", "2020-06-01")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.InputFiles) != 2 || cfg.InputFiles[1] != "b.xlsx" {
		t.Errorf("input files: got %v", cfg.InputFiles)
	}
	if cfg.TargetProduct != "gold morsel" {
		t.Errorf("product: got %q", cfg.TargetProduct)
	}
	if cfg.Cutoff().Month() != time.June {
		t.Errorf("cutoff: got %s", cfg.Cutoff())
	}
	want := "host=db port=5432 user=morsel password=morsel123 dbname=sales_db sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("dsn: got %q, want %q", got, want)
	}
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PRICE_HIKE_DATE", "15/01/2021"},
		{"LOAD_CONCURRENCY", "0"},
		{"MOVING_AVERAGE_WINDOW", "-1"},
		{"POSTGRES_SSLMODE", "sometimes"},
		{"MAX_RETRIES", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("%s=%q: expected an error", tt.key, tt.value)
			}
		})
	}
}
