package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"1700000000", 1700000000, false},
		{"2023-11-14T22:13:20Z", 1700000000, false},
		{"yesterday", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%q: err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "exchange.yaml")
	body := "fee-numerator: 990\nmin-seed: \"500\"\naddr: \":9000\"\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXCHANGE_MIN_SEED", "700")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	if err := flags.Parse([]string{"--addr", ":7000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadServe(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("flag should win, got %q", cfg.Addr)
	}
	if cfg.Exchange.MinSeed != "700" {
		t.Fatalf("env should beat file, got %q", cfg.Exchange.MinSeed)
	}
	if cfg.Exchange.FeeNumerator != 990 || cfg.Exchange.FeeDenominator != 1000 {
		t.Fatalf("fee = %d/%d", cfg.Exchange.FeeNumerator, cfg.Exchange.FeeDenominator)
	}

	engine, err := cfg.Exchange.Pricing()
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	if engine.FeeNumerator() != 990 {
		t.Fatalf("engine fee numerator = %d", engine.FeeNumerator())
	}
	seed, err := cfg.Exchange.MinSeedAmount()
	if err != nil || seed.Uint64() != 700 {
		t.Fatalf("min seed = %v, %v", seed, err)
	}
}

func TestInvalidExchangeParams(t *testing.T) {
	p := ExchangeParams{FeeNumerator: 1001, FeeDenominator: 1000, MinSeed: "abc"}
	if _, err := p.Pricing(); err == nil {
		t.Fatalf("expected fee error")
	}
	if _, err := p.MinSeedAmount(); err == nil {
		t.Fatalf("expected min-seed error")
	}
}
