package config

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"exchangeLedger/internal/amount"
	"exchangeLedger/internal/pricing"
)

const envPrefix = "EXCHANGE"

// ExchangeParams are the pool parameters shared by every command.
type ExchangeParams struct {
	FeeNumerator   uint64
	FeeDenominator uint64
	MinSeed        string
	Registry       string
}

// Pricing builds the pricing engine for the configured fee.
func (p ExchangeParams) Pricing() (pricing.Engine, error) {
	return pricing.New(p.FeeNumerator, p.FeeDenominator)
}

// MinSeedAmount parses the minimum seed deposit.
func (p ExchangeParams) MinSeedAmount() (*uint256.Int, error) {
	v, err := amount.Parse(p.MinSeed)
	if err != nil {
		return nil, fmt.Errorf("min-seed: %w", err)
	}
	return v, nil
}

// load merges config file, environment variables, and flags. Flags win over
// env, env over the file, the file over defaults.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("fee-numerator", uint64(pricing.DefaultFeeNumerator))
	v.SetDefault("fee-denominator", uint64(pricing.DefaultFeeDenominator))
	v.SetDefault("min-seed", "1000000000")
	v.SetDefault("registry", "0x0000000000000000000000000000000000000f00")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func exchangeParams(v *viper.Viper) ExchangeParams {
	return ExchangeParams{
		FeeNumerator:   v.GetUint64("fee-numerator"),
		FeeDenominator: v.GetUint64("fee-denominator"),
		MinSeed:        v.GetString("min-seed"),
		Registry:       v.GetString("registry"),
	}
}
