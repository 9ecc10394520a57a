package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tradeflux/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result to
// config.gen.yaml.
func RunTUI() error {
	var (
		platform            string
		pairsStr            string
		fluxIntervalStr     string
		positionIntervalStr string
		stopGainStr         string
		stopLossStr         string
		amountStr           string
		dashboardAddr       string
		confirm             bool
	)

	// defaults
	fluxIntervalStr = "500ms"
	positionIntervalStr = "1s"
	stopGainStr = "10"
	stopLossStr = "5"
	amountStr = "0.001"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire up your engine.\n"))

	// platform
	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// pairs
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSETS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pairs").
				Description("Comma-separated, BASE_QUOTE format (e.g. BTC_USDT,ETH_USDT)").
				Value(&pairsStr).
				Validate(validatePairs),
		),
	).Run()
	if err != nil {
		return err
	}

	// cadences
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Flux Poll Interval").
				Description("Cadence of account/ticker/order/trade polling (e.g. 500ms, 1s)").
				Value(&fluxIntervalStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Position Poll Interval").
				Description("Cadence of position re-evaluation (e.g. 1s, 5s)").
				Value(&positionIntervalStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// rules
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: POSITION RULES"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Stop Gain %").
				Description("Take profit when price rises this much above open (e.g. 10)").
				Value(&stopGainStr).
				Validate(validatePercent),
			huh.NewInput().
				Title("Stop Loss %").
				Description("Cut losses when price falls this much below open (e.g. 5)").
				Value(&stopLossStr).
				Validate(validatePercent),
			huh.NewInput().
				Title("Position Amount").
				Description("Base-currency size of opened positions (e.g. 0.001)").
				Value(&amountStr).
				Validate(validateAmount),
		),
	).Run()
	if err != nil {
		return err
	}

	// dashboard
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: DASHBOARD"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard Address").
				Description("Listen address (e.g. :8080), leave empty to disable").
				Value(&dashboardAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TRADEFLUX CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPairs: %s\nFlux Interval: %s\nPosition Interval: %s\nStop Gain: %s%%\nStop Loss: %s%%\nAmount: %s\n",
		platform, pairsStr, fluxIntervalStr, positionIntervalStr, stopGainStr, stopLossStr, amountStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pairs := strings.Split(pairsStr, ",")
	for i := range pairs {
		pairs[i] = strings.TrimSpace(pairs[i])
	}

	cfgTmp := config.ConfigTmp{
		Platform:             platform,
		Pairs:                pairs,
		AccountFluxInterval:  fluxIntervalStr,
		TickerFluxInterval:   fluxIntervalStr,
		OrderFluxInterval:    fluxIntervalStr,
		TradeFluxInterval:    fluxIntervalStr,
		PositionFluxInterval: positionIntervalStr,
		StopGainPercent:      stopGainStr,
		StopLossPercent:      stopLossStr,
		Amount:               amountStr,
		DashboardAddr:        dashboardAddr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting engine...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validatePairs(s string) error {
	if s == "" {
		return fmt.Errorf("at least one pair is required")
	}
	for _, p := range strings.Split(s, ",") {
		if !strings.Contains(strings.TrimSpace(p), "_") {
			return fmt.Errorf("invalid format %q: must be BASE_QUOTE (e.g. BTC_USDT)", strings.TrimSpace(p))
		}
	}
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func validatePercent(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
