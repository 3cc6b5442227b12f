package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/exportiq/dealerscout/internal/cost"
	"github.com/exportiq/dealerscout/internal/discovery"
	"github.com/exportiq/dealerscout/internal/resilience"
	"github.com/exportiq/dealerscout/internal/reveal"
	"github.com/exportiq/dealerscout/internal/source"
	"github.com/exportiq/dealerscout/pkg/apollo"
	"github.com/exportiq/dealerscout/pkg/cnpj"
	"github.com/exportiq/dealerscout/pkg/hunter"
	"github.com/exportiq/dealerscout/pkg/lusha"
	"github.com/exportiq/dealerscout/pkg/serper"
)

func initStore(ctx context.Context) (discovery.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dealerscout.db"
		}
		return discovery.NewSQLiteStore(dsn)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		return discovery.NewPostgresStore(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initAdapters() ([]source.Adapter, error) {
	if cfg.Serper.Key == "" {
		return nil, eris.New("serper API key is required (DEALERSCOUT_SERPER_KEY)")
	}
	if cfg.Apollo.Key == "" {
		return nil, eris.New("apollo API key is required (DEALERSCOUT_APOLLO_KEY)")
	}

	web := source.NewWebAdapter(
		serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL)),
		cfg.Serper.ResultCount,
	)
	graph := source.NewGraphAdapter(
		apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL)),
		cfg.Apollo.PerPage,
	)

	regOpts := []cnpj.Option{cnpj.WithProvider(cnpj.Provider(cfg.Registry.Provider))}
	if cfg.Registry.BaseURL != "" {
		regOpts = append(regOpts, cnpj.WithBaseURL(cfg.Registry.BaseURL))
	}
	registry := source.NewRegistryAdapter(cnpj.NewClient(regOpts...))

	return []source.Adapter{graph, web, registry}, nil
}

func initRates() cost.Rates {
	rates := cost.DefaultRates()
	for src, price := range cfg.Pricing.PerUnitUSD {
		rates.PerUnitUSD[src] = price
	}
	return rates
}

func initRunner(store discovery.Store) (*discovery.Runner, error) {
	adapters, err := initAdapters()
	if err != nil {
		return nil, err
	}

	runnerCfg := discovery.RunnerConfig{
		InterCountryDelay: time.Duration(cfg.Discovery.InterCountryDelaySecs) * time.Second,
		AdapterTimeout:    time.Duration(cfg.Discovery.AdapterTimeoutSecs) * time.Second,
		Retry:             resilience.DefaultRetryConfig(),
	}

	return discovery.NewRunner(adapters, runnerCfg, initRates(), store), nil
}

func initCascade(ledger *cost.Ledger) (*reveal.Cascade, error) {
	if cfg.Apollo.Key == "" {
		return nil, eris.New("apollo API key is required (DEALERSCOUT_APOLLO_KEY)")
	}

	providers := []reveal.Provider{
		reveal.NewGraphPeopleProvider(apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL))),
	}
	if cfg.Hunter.Key != "" {
		providers = append(providers, reveal.NewEmailFinderProvider(
			hunter.NewClient(cfg.Hunter.Key, hunter.WithBaseURL(cfg.Hunter.BaseURL)),
			cfg.Hunter.MinScore,
		))
	}
	if cfg.Lusha.Key != "" {
		providers = append(providers, reveal.NewPremiumContactProvider(
			lusha.NewClient(cfg.Lusha.Key, lusha.WithBaseURL(cfg.Lusha.BaseURL)),
		))
	}

	return reveal.NewCascade(providers, cfg.Reveal.VIPTitles, ledger), nil
}
