// Command tradeflux runs the trading engine: per-family update fluxes feed
// registered strategies, and the position engine opens and auto-closes
// positions by their stop rules.
//
// Usage:
//
//	tradeflux --config config.yaml
//	tradeflux setup        (interactive configuration wizard)
//	tradeflux              (uses CLI arguments)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/config"
	"github.com/vadiminshakov/tradeflux/dashboard"
	"github.com/vadiminshakov/tradeflux/internal/clients"
	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/flux"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
	"github.com/vadiminshakov/tradeflux/internal/scheduler"
	"github.com/vadiminshakov/tradeflux/internal/services/position"
	"github.com/vadiminshakov/tradeflux/internal/services/strategy/smacross"
	"github.com/vadiminshakov/tradeflux/internal/setup"
	"github.com/vadiminshakov/tradeflux/internal/storage/positions"
	"github.com/vadiminshakov/tradeflux/internal/strategy"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		os.Args = []string{os.Args[0], "--config", "config.gen.yaml"}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := positions.NewWALStore(cfg.WalDir)
	if err != nil {
		return errors.Wrap(err, "open position store")
	}
	defer store.Close()

	gw, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	dispatcher := strategy.NewDispatcher(logger)
	engine := position.NewEngine(gw, store, nil, logger)

	restored, err := store.Load()
	if err != nil {
		return errors.Wrap(err, "load persisted positions")
	}
	engine.Restore(restored)
	if len(restored) > 0 {
		logger.Info("restored persisted positions", zap.Int("count", len(restored)))
	}

	rules := domain.NewRules(cfg.StopGainPercent, cfg.StopLossPercent)
	for _, pair := range cfg.Pairs {
		dispatcher.Register(smacross.New(pair, cfg.Amount, rules, engine, logger))
	}
	pairs := dispatcher.RequestedPairs()

	// the engine and the position flux reference each other: the flux polls
	// the engine for state, the engine pushes transitions into the flux
	positionFlux := flux.NewPositionFlux(engine, dispatcher, logger)
	engine.SetNotifier(positionFlux)

	accountFlux := flux.NewAccountFlux(gw, dispatcher, logger)
	tickerFlux := flux.NewTickerFlux(gw, pairs, engine, dispatcher, logger)
	orderFlux := flux.NewOrderFlux(gw, engine, dispatcher, logger)
	tradeFlux := flux.NewTradeFlux(gw, engine, dispatcher, logger)

	sched := scheduler.New(logger)
	sched.Add(scheduler.Task{Name: accountFlux.Name(), Interval: cfg.AccountFluxInterval, InitialDelay: cfg.InitialDelay, Run: accountFlux.Update})
	sched.Add(scheduler.Task{Name: tickerFlux.Name(), Interval: cfg.TickerFluxInterval, InitialDelay: cfg.InitialDelay, Run: tickerFlux.Update})
	sched.Add(scheduler.Task{Name: orderFlux.Name(), Interval: cfg.OrderFluxInterval, InitialDelay: cfg.InitialDelay, Run: orderFlux.Update})
	sched.Add(scheduler.Task{Name: tradeFlux.Name(), Interval: cfg.TradeFluxInterval, InitialDelay: cfg.InitialDelay, Run: tradeFlux.Update})
	sched.Add(scheduler.Task{Name: positionFlux.Name(), Interval: cfg.PositionFluxInterval, InitialDelay: cfg.InitialDelay, Run: positionFlux.Update})

	if cfg.DashboardAddr != "" {
		srv := dashboard.NewServer(cfg.DashboardAddr, engine)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("dashboard server stopped", zap.Error(err))
			}
		}()
		logger.Info("dashboard listening", zap.String("addr", cfg.DashboardAddr))
	}

	logger.Info("engine started",
		zap.String("platform", cfg.Platform),
		zap.Int("pairs", len(pairs)))

	sched.Start(ctx)
	sched.Wait()

	logger.Info("engine stopped")
	return nil
}

func buildGateway(cfg config.Config) (gateway.Gateway, error) {
	switch cfg.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		return gateway.NewBinance(clients.NewBinanceClient(apiKey, apiSecret), cfg.Pairs), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		return gateway.NewBybit(clients.NewBybitClient(apiKey, apiSecret), cfg.Pairs), nil
	case "hyperliquid":
		privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if privateKey == "" {
			return nil, errors.New("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		client, err := clients.NewHyperliquidClient(privateKey, cfg.HyperliquidBaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "hyperliquid client")
		}
		return gateway.NewHyperliquid(client.Exchange(), client.AccountAddress(), cfg.Pairs), nil
	default:
		return nil, errors.Errorf("unsupported platform %q", cfg.Platform)
	}
}
