package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/detector"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/engine"
	"solana-copy-trader/internal/gateway"
	"solana-copy-trader/internal/health"
	"solana-copy-trader/internal/ledger"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/poller"
	"solana-copy-trader/internal/simulation"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/storage/migrations"
	pgstore "solana-copy-trader/internal/storage/postgres"
)

const gatewayTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	log := logger.WithField("app", "copytrader")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")
		cancel()

		// A second signal, or a stalled shutdown, forces exit.
		select {
		case <-sigCh:
			log.Warn("second signal, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)

	done <- err
	if err != nil && err != context.Canceled {
		log.WithError(err).Fatal("exited with error")
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	rpc := solanaClient(cfg)
	stats := domain.NewTradeStats()

	records, closeStore, err := buildTradeStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	gw, balance, observe, err := buildGateway(cfg, rpc, log)
	if err != nil {
		return err
	}

	market := health.NewDexScreenerClient(cfg.DexScreenerURL, health.DefaultTimeout)
	holder := health.NewRugCheckClient(cfg.RugCheckURL, health.DefaultTimeout)
	healthSvc := health.NewService(market, holder, log)

	led := ledger.New(gw, records, stats, log, ledger.Options{
		Rules: ledger.ExitRules{
			TakeProfitPct:    cfg.TakeProfitPct,
			TimeLimitMinutes: cfg.TimeLimitMinutes,
			TrailingStopPct:  cfg.TrailingStopPct,
			AbandonSOL:       cfg.RugAbandonSOL,
		},
		MaxPositions:  cfg.MaxPositions,
		CheckInterval: cfg.CheckInterval,
		Simulated:     cfg.Simulation,
	})

	eng := engine.New(engine.Config{
		CopySells:    cfg.CopySells,
		MinSignalSOL: cfg.MinSignalSOL,
		SellCooldown: cfg.SellCooldown,
		CopyCooldown: cfg.CopyCooldown,
		TrustPumpFun: cfg.TrustPumpFun,
		Health: engine.HealthThresholds{
			MinAgeMinutes:    cfg.MinTokenAgeMin,
			MinMarketCapUSD:  cfg.MinMarketCapUSD,
			MinLiquidityUSD:  cfg.MinLiquidityUSD,
			MinVolume24hUSD:  cfg.MinVolume24hUSD,
			MaxPriceChange1h: cfg.MaxPriceChange1h,
			MinTxns1h:        cfg.MinTxns1h,
		},
		Holders: engine.HolderThresholds{
			MaxTop10Pct:   cfg.MaxTop10Pct,
			MaxCreatorPct: cfg.MaxCreatorPct,
			MinHolders:    cfg.MinHolders,
		},
		Sizing: engine.SizingConfig{
			Proportional:  cfg.CopyProportional,
			FixedPct:      cfg.CopyBalancePct,
			PerTradeSOL:   cfg.CopyMaxSOL,
			MinTradeSOL:   cfg.CopyMinSOL,
			FeeReserveSOL: cfg.FeeReserveSOL,
		},
	}, led, gw, healthSvc, balance, rpc, stats, log)

	handler := eng.HandleSwap
	if observe != nil {
		inner := handler
		handler = func(ctx context.Context, ev *domain.SwapEvent) error {
			observe(ev)
			return inner(ctx, ev)
		}
	}

	var wake <-chan string
	if cfg.RPCWSURL != "" {
		ws := solana.NewWSClient(cfg.RPCWSURL, cfg.CopyWallets, log)
		wake = ws.Wake()
		go ws.Run(ctx)
	}

	det := detector.New(log)
	poll := poller.New(rpc, det, handler, cfg.CopyWallets, log, poller.Options{
		PollInterval: cfg.PollInterval,
		SeedLimit:    cfg.SeedLimit,
		PollLimit:    cfg.PollLimit,
		Wake:         wake,
	})

	observability.Register("copy_trader", stats, led)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	if lamports, err := balance.Balance(ctx); err != nil {
		log.WithError(err).Warn("could not fetch starting balance")
	} else {
		sol := float64(lamports) / domain.LamportsPerSOL
		log.WithFields(logrus.Fields{
			"sol":        sol,
			"simulation": cfg.Simulation,
			"wallets":    len(cfg.CopyWallets),
		}).Info("starting")
		if sol < cfg.FeeReserveSOL+cfg.CopyMinSOL {
			log.WithField("sol", sol).Warn("balance below fee reserve plus minimum trade size, no buys will execute")
		}
	}

	errCh := make(chan error, 3)
	go func() { errCh <- poll.Run(ctx) }()
	go func() { errCh <- led.Run(ctx) }()
	go func() { errCh <- eng.RunCooldownSweep(ctx, engine.DefaultSweepInterval) }()

	err = <-errCh
	logSummary(stats, log)
	return err
}

func buildTradeStore(ctx context.Context, cfg *config.Config, log *logrus.Entry) (storage.TradeRecordStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return memory.NewTradeRecordStore(), func() {}, nil
	}
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("trade records persisted to postgres")
	return pgstore.NewTradeRecordStore(pool), pool.Close, nil
}

// buildGateway returns the trade gateway, a balance source for sizing, and,
// in simulation mode, the observe hook that feeds signal prices to the fill
// model.
func buildGateway(cfg *config.Config, rpc solana.Client, log *logrus.Entry) (gateway.Gateway, engine.BalanceSource, func(*domain.SwapEvent), error) {
	if cfg.Simulation {
		sim, err := simulation.New(cfg.SimStatePath, int64(cfg.SimStartingSOL*domain.LamportsPerSOL), log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load simulation state: %w", err)
		}
		return sim, sim, sim.Observe, nil
	}

	signer, err := gateway.NewLocalSigner(cfg.WalletPrivateKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load wallet key: %w", err)
	}
	jup := gateway.NewJupiterClient(cfg.JupiterURL, cfg.SlippageBps, gatewayTimeout)
	pump := gateway.NewPumpPortalClient(cfg.PumpPortalURL, cfg.SlippageBps, cfg.PriorityFeeSOL, gatewayTimeout)
	live := gateway.NewLiveGateway(rpc, jup, pump, signer, log)
	return live, &walletBalance{rpc: rpc, address: signer.PublicKey()}, nil, nil
}

// walletBalance adapts the RPC client to the engine's balance source for
// our own wallet.
type walletBalance struct {
	rpc     solana.Client
	address string
}

func (w *walletBalance) Balance(ctx context.Context) (int64, error) {
	return w.rpc.GetBalance(ctx, w.address)
}

func solanaClient(cfg *config.Config) *solana.HTTPClient {
	opts := []solana.ClientOption{}
	if cfg.RPCRateLimit > 0 {
		opts = append(opts, solana.WithRateLimit(cfg.RPCRateLimit))
	}
	return solana.NewHTTPClient(cfg.RPCURL, opts...)
}

func serveMetrics(addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	log.WithField("addr", addr).Info("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("metrics server")
	}
}

func logSummary(stats *domain.TradeStats, log *logrus.Entry) {
	s := stats.Snapshot()
	log.WithFields(logrus.Fields{
		"detected":     s.Detected,
		"copied":       s.Copied,
		"skipped":      s.Skipped,
		"failed":       s.Failed,
		"sol_spent":    s.SOLSpent,
		"sol_received": s.SOLReceived,
		"realized_pnl": s.RealizedPnL,
	}).Info("session summary")
}
