package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"morsel-sales/config"
	"morsel-sales/services"
	"morsel-sales/storage"
	"morsel-sales/utils"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		TargetProduct:       "pink morsel",
		PriceHikeDate:       "2021-01-15",
		CurrencySymbols:     []string{"$", "£", "€"},
		Regions:             []string{"north", "east", "south", "west"},
		MovingAverageWindow: 7,
		LoadConcurrency:     2,
		CSVOutputPath:       filepath.Join(dir, "out", "pink_morsel_sales.csv"),
		SQLitePath:          filepath.Join(dir, "out", "sales.db"),
		MaxRetries:          1,
	}
}

func TestRunProcess(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "daily_sales_data_0.csv")
	content := "product,price,quantity,date,region\n" +
		"pink morsel,$2.00,3,2021-01-10,north\n" +
		"gold morsel,$9.99,1,2021-01-10,north\n" +
		"pink morsel,$2.00,5,2021-01-20,north\n" +
		"pink morsel,$2.00,oops,2021-01-21,south\n"
	if err := os.WriteFile(input, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := testConfig(dir)
	var out bytes.Buffer
	logger := utils.NewLoggerTo(&bytes.Buffer{}, utils.LevelDebug)

	if err := runProcess(context.Background(), c, []string{input}, &out, logger); err != nil {
		t.Fatalf("runProcess: %v", err)
	}

	raw, err := os.ReadFile(c.CSVOutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "Sales,Date,Region\n6.00,2021-01-10,north\n10.00,2021-01-20,north\n"
	if string(raw) != want {
		t.Errorf("csv output:\ngot  %q\nwant %q", raw, want)
	}

	sw, err := storage.NewSQLiteWriter(c.SQLitePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer sw.Close()
	stored, err := sw.FetchAll()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("sqlite rows: got %d, want 2", len(stored))
	}

	report := out.String()
	for _, s := range []string{"Pink Morsel", "66.67%", "10.00"} {
		if !strings.Contains(report, s) {
			t.Errorf("report missing %q:\n%s", s, report)
		}
	}
}

func TestRunProcessNoInput(t *testing.T) {
	dir := t.TempDir()
	err := runProcess(context.Background(), testConfig(dir), []string{filepath.Join(dir, "missing", "*.csv")},
		&bytes.Buffer{}, utils.NewLoggerTo(&bytes.Buffer{}, utils.LevelInfo))
	if !errors.Is(err, services.ErrNoInputFiles) {
		t.Errorf("got %v, want ErrNoInputFiles", err)
	}
}

func TestLocalURL(t *testing.T) {
	tests := []struct{ addr, want string }{
		{":8050", "http://localhost:8050"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		if got := localURL(tt.addr); got != tt.want {
			t.Errorf("localURL(%q): got %q, want %q", tt.addr, got, tt.want)
		}
	}
}
