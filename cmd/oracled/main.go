package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/config"
	"github.com/slab-network/oracled/internal/core/application/aggregator"
	"github.com/slab-network/oracled/internal/core/application/pusher"
	"github.com/slab-network/oracled/internal/core/application/submitter"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	dexscreenerfeeder "github.com/slab-network/oracled/internal/infrastructure/price-feeder/dexscreener"
	jupiterfeeder "github.com/slab-network/oracled/internal/infrastructure/price-feeder/jupiter"
	"github.com/slab-network/oracled/internal/infrastructure/pubsub"
	"github.com/slab-network/oracled/internal/infrastructure/signer"
	badgerstore "github.com/slab-network/oracled/internal/infrastructure/storage/badger"
	httpinterface "github.com/slab-network/oracled/internal/interfaces/http"
	"github.com/slab-network/oracled/internal/interfaces/ws"
	"github.com/slab-network/oracled/pkg/explorer/solana"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/slab-network/oracled/pkg/stats"
	"github.com/urfave/cli/v2"
)

const pushConcurrency = 8

func main() {
	app := cli.NewApp()

	app.Name = "oracled"
	app.Usage = "Price oracle daemon for slab markets"
	app.Flags = flags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if err := applyFlags(c); err != nil {
		return err
	}
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := badgerstore.NewStore(config.GetDatadir(), nil)
	if err != nil {
		return fmt.Errorf("error while opening db: %s", err)
	}
	defer store.Close()

	if err := seedMarkets(ctx, store); err != nil {
		return err
	}

	providers, err := newPriceProviders()
	if err != nil {
		return err
	}
	aggregatorSvc, err := aggregator.NewService(aggregator.Config{
		Providers:           providers,
		ProviderTimeout:     config.GetDuration(config.ProviderTimeoutKey),
		DivergenceThreshold: config.GetFloat(config.DivergenceThresholdKey),
		DeviationThreshold:  config.GetFloat(config.DeviationThresholdKey),
		Staleness:           config.GetDuration(config.StalenessKey),
	})
	if err != nil {
		return fmt.Errorf("error while setting up price aggregator: %s", err)
	}
	history, err := store.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("error while loading price history: %s", err)
	}
	aggregatorSvc.Restore(history)
	log.Debugf("restored price history of %d markets", aggregatorSvc.TrackedCount())

	bus := pubsub.NewService()

	scheduler, err := newScheduler(aggregatorSvc, store, bus)
	if err != nil {
		return err
	}

	wsServer := ws.NewServer(bus, aggregatorSvc, ws.Config{
		MaxConnections:   config.GetInt(config.MaxConnectionsKey),
		MaxSubscriptions: config.GetInt(config.MaxSubscriptionsKey),
		PingInterval:     config.GetDuration(config.PingIntervalKey),
	})
	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:        config.GetString(config.ListenAddrKey),
		WSHandler:      wsServer,
		Bus:            bus,
		Status:         aggregatorSvc,
		WebhookSecret:  config.GetString(config.WebhookSecretKey),
		EnableProfiler: config.GetBool(config.EnableProfilerKey),
	})
	if err != nil {
		return fmt.Errorf("error while setting up http interface: %s", err)
	}

	if interval := config.GetInt(config.StatsIntervalKey); interval > 0 {
		stats.EnableMemoryStatistics(ctx, time.Duration(interval)*time.Second)
	}

	if err := httpSvc.Start(); err != nil {
		return fmt.Errorf("error while starting http interface: %s", err)
	}
	if scheduler != nil {
		scheduler.Start(ctx)
	}
	log.Info("oracle daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down oracle daemon")
	if scheduler != nil {
		scheduler.Stop()
	}
	wsServer.Close()
	httpSvc.Stop()
	cancel()

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := store.SaveHistory(saveCtx, aggregatorSvc.Snapshot()); err != nil {
		log.WithError(err).Warn("error while saving price history")
	}

	log.Debug("exiting")
	return nil
}

func seedMarkets(ctx context.Context, store ports.MarketStore) error {
	markets, err := config.GetMarkets()
	if err != nil {
		return err
	}
	for _, market := range markets {
		err := store.AddMarket(ctx, market)
		if err != nil && !errors.Is(err, domain.ErrMarketAlreadyExists) {
			return fmt.Errorf("error while adding market %s: %s", market.Address, err)
		}
	}
	return nil
}

func newPriceProviders() ([]ports.PriceProvider, error) {
	timeout := config.GetDuration(config.ProviderTimeoutKey)
	cacheTTL := config.GetDuration(config.ProviderCacheTTLKey)

	providers := make([]ports.PriceProvider, 0)
	for _, name := range config.GetStringSlice(config.ProvidersKey) {
		var (
			provider ports.PriceProvider
			err      error
		)
		switch name {
		case dexscreenerfeeder.Name:
			provider, err = dexscreenerfeeder.NewService(
				config.GetString(config.DexscreenerURLKey), timeout, cacheTTL,
			)
		case jupiterfeeder.Name:
			provider, err = jupiterfeeder.NewService(
				config.GetString(config.JupiterURLKey), timeout, cacheTTL,
			)
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("error while setting up %s: %s", name, err)
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// newScheduler returns nil when no keypair is configured, in which case the
// daemon only serves prices and trades to websocket clients.
func newScheduler(
	prices pusher.PriceSource, markets ports.MarketStore, bus ports.EventBus,
) (*pusher.Scheduler, error) {
	keypairPath := config.GetString(config.KeypairPathKey)
	if keypairPath == "" {
		log.Warn("no keypair configured, price pushes are disabled")
		return nil, nil
	}

	authority, err := signer.LoadKeypairFile(keypairPath)
	if err != nil {
		return nil, err
	}
	programID, err := soltx.PublicKeyFromBase58(config.GetString(config.ProgramIDKey))
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %s", err)
	}

	rpc, err := solana.NewService(
		config.GetString(config.RPCEndpointKey),
		config.GetDuration(config.RPCRequestTimeoutKey),
		config.GetInt(config.RPCRateLimitKey),
	)
	if err != nil {
		return nil, fmt.Errorf("error while setting up rpc client: %s", err)
	}
	sender, err := submitter.NewService(rpc, submitter.Config{
		MaxAttempts:      config.GetInt(config.MaxTxAttemptsKey),
		ComputeUnitLimit: uint32(config.GetUint64(config.ComputeUnitLimitKey)),
		MinPriorityFee:   config.GetUint64(config.MinPriorityFeeKey),
		ConfirmInterval:  config.GetDuration(config.ConfirmIntervalKey),
		ConfirmTimeout:   config.GetDuration(config.ConfirmTimeoutKey),
	})
	if err != nil {
		return nil, fmt.Errorf("error while setting up tx submitter: %s", err)
	}
	pusherSvc, err := pusher.NewService(prices, sender, authority, bus, pusher.Config{
		ProgramID:       programID,
		MinPushInterval: config.GetDuration(config.MinPushIntervalKey),
	})
	if err != nil {
		return nil, fmt.Errorf("error while setting up pusher: %s", err)
	}

	log.Infof("pushing prices as oracle authority %s", authority.PublicKey())
	return pusher.NewScheduler(
		pusherSvc, markets, config.GetDuration(config.CrankIntervalKey),
		pushConcurrency,
	), nil
}
