// Package config loads engine configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

// Default cadences: the shortest interval the gateway can sustain for the
// exchange-backed fluxes, and a slightly longer one for position
// re-evaluation so order/trade state settles first.
const (
	DefaultFluxInterval         = 500 * time.Millisecond
	DefaultPositionFluxInterval = time.Second
	DefaultInitialDelay         = time.Second
)

// Config is the engine configuration.
type Config struct {
	// Platform selects the exchange adapter: binance, bybit or hyperliquid.
	Platform string
	// Pairs additionally tracked beyond what strategies request.
	Pairs []domain.Pair

	AccountFluxInterval  time.Duration
	TickerFluxInterval   time.Duration
	OrderFluxInterval    time.Duration
	TradeFluxInterval    time.Duration
	PositionFluxInterval time.Duration
	InitialDelay         time.Duration

	// StopGainPercent and StopLossPercent are the default position rules
	// applied by the shipped example strategy.
	StopGainPercent decimal.Decimal
	StopLossPercent decimal.Decimal
	// Amount is the base-currency size of positions the example strategy opens.
	Amount decimal.Decimal

	// WalDir is where position state is persisted.
	WalDir string
	// DashboardAddr enables the HTTP dashboard when non-empty.
	DashboardAddr string
	// HyperliquidBaseURL overrides the Hyperliquid API endpoint.
	HyperliquidBaseURL string
}

// ConfigTmp is the YAML shape of the config file. The setup wizard marshals
// it and Get unmarshals it.
// Durations are duration strings ("500ms", "1s") parsed with
// time.ParseDuration.
type ConfigTmp struct {
	Platform             string   `yaml:"platform"`
	Pairs                []string `yaml:"pairs"`
	AccountFluxInterval  string   `yaml:"account_flux_interval,omitempty"`
	TickerFluxInterval   string   `yaml:"ticker_flux_interval,omitempty"`
	OrderFluxInterval    string   `yaml:"order_flux_interval,omitempty"`
	TradeFluxInterval    string   `yaml:"trade_flux_interval,omitempty"`
	PositionFluxInterval string   `yaml:"position_flux_interval,omitempty"`
	InitialDelay         string   `yaml:"initial_delay,omitempty"`
	StopGainPercent      string   `yaml:"stop_gain_percent,omitempty"`
	StopLossPercent      string   `yaml:"stop_loss_percent,omitempty"`
	Amount               string   `yaml:"amount,omitempty"`
	WalDir               string   `yaml:"wal_dir,omitempty"`
	DashboardAddr        string   `yaml:"dashboard_addr,omitempty"`
	HyperliquidBaseURL   string   `yaml:"hyperliquid_base_url,omitempty"`
}

// Get loads the configuration: from the YAML file when --config is set,
// otherwise from CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	platform := flag.String("platform", "binance", "exchange platform: binance, bybit or hyperliquid")
	pairsFlag := flag.String("pairs", "BTC_USDT", "comma-separated pairs, example: BTC_USDT,ETH_USDT")
	fluxInterval := flag.Duration("fluxinterval", DefaultFluxInterval, "poll interval for account/ticker/order/trade fluxes")
	positionInterval := flag.Duration("positioninterval", DefaultPositionFluxInterval, "poll interval for the position flux")
	stopGain := flag.String("stopgain", "10", "stop gain percent for the example strategy")
	stopLoss := flag.String("stoploss", "5", "stop loss percent for the example strategy")
	amount := flag.String("amount", "0.001", "base amount of positions opened by the example strategy")
	walDir := flag.String("waldir", "", "position WAL directory")
	dashboardAddr := flag.String("dashboard", "", "dashboard listen address, empty disables it")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	pairs, err := parsePairs(strings.Split(*pairsFlag, ","))
	if err != nil {
		return Config{}, err
	}
	gain, err := decimal.NewFromString(*stopGain)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --stopgain provided: %w", err)
	}
	loss, err := decimal.NewFromString(*stopLoss)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --stoploss provided: %w", err)
	}
	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --amount provided: %w", err)
	}

	cfg := Config{
		Platform:             *platform,
		Pairs:                pairs,
		AccountFluxInterval:  *fluxInterval,
		TickerFluxInterval:   *fluxInterval,
		OrderFluxInterval:    *fluxInterval,
		TradeFluxInterval:    *fluxInterval,
		PositionFluxInterval: *positionInterval,
		InitialDelay:         DefaultInitialDelay,
		StopGainPercent:      gain,
		StopLossPercent:      loss,
		Amount:               amt,
		WalDir:               *walDir,
		DashboardAddr:        *dashboardAddr,
	}
	return cfg, cfg.validate()
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	pairs, err := parsePairs(tmp.Pairs)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Platform:           tmp.Platform,
		Pairs:              pairs,
		WalDir:             tmp.WalDir,
		DashboardAddr:      tmp.DashboardAddr,
		HyperliquidBaseURL: tmp.HyperliquidBaseURL,
	}

	if cfg.AccountFluxInterval, err = parseDuration(tmp.AccountFluxInterval, DefaultFluxInterval); err != nil {
		return Config{}, fmt.Errorf("invalid account_flux_interval: %w", err)
	}
	if cfg.TickerFluxInterval, err = parseDuration(tmp.TickerFluxInterval, DefaultFluxInterval); err != nil {
		return Config{}, fmt.Errorf("invalid ticker_flux_interval: %w", err)
	}
	if cfg.OrderFluxInterval, err = parseDuration(tmp.OrderFluxInterval, DefaultFluxInterval); err != nil {
		return Config{}, fmt.Errorf("invalid order_flux_interval: %w", err)
	}
	if cfg.TradeFluxInterval, err = parseDuration(tmp.TradeFluxInterval, DefaultFluxInterval); err != nil {
		return Config{}, fmt.Errorf("invalid trade_flux_interval: %w", err)
	}
	if cfg.PositionFluxInterval, err = parseDuration(tmp.PositionFluxInterval, DefaultPositionFluxInterval); err != nil {
		return Config{}, fmt.Errorf("invalid position_flux_interval: %w", err)
	}
	if cfg.InitialDelay, err = parseDuration(tmp.InitialDelay, DefaultInitialDelay); err != nil {
		return Config{}, fmt.Errorf("invalid initial_delay: %w", err)
	}

	if cfg.StopGainPercent, err = parseDecimal(tmp.StopGainPercent, "10"); err != nil {
		return Config{}, fmt.Errorf("invalid stop_gain_percent: %w", err)
	}
	if cfg.StopLossPercent, err = parseDecimal(tmp.StopLossPercent, "5"); err != nil {
		return Config{}, fmt.Errorf("invalid stop_loss_percent: %w", err)
	}
	if cfg.Amount, err = parseDecimal(tmp.Amount, "0.001"); err != nil {
		return Config{}, fmt.Errorf("invalid amount: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Platform {
	case "binance", "bybit", "hyperliquid":
	default:
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	if c.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than zero")
	}
	return nil
}

func parsePairs(raw []string) ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pair, err := domain.PairFromString(s)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func parseDecimal(s, fallback string) (decimal.Decimal, error) {
	if s == "" {
		s = fallback
	}
	return decimal.NewFromString(s)
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
