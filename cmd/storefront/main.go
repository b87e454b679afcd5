package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"StudioMemories/internal/admin"
	"StudioMemories/internal/catalog"
	"StudioMemories/internal/config"
	"StudioMemories/internal/kv"
	"StudioMemories/pkg/kit"
)

const service = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("open durable store", zap.Error(err))
	}
	defer func() { _ = backend.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := catalog.New(ctx, backend, catalog.Options{
		Log:     log.Named("catalog"),
		Metrics: catalog.NewMetrics(reg),
	})
	defer store.Close()

	creds, err := admin.NewCredentials(cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		log.Fatal("admin credentials", zap.Error(err))
	}
	if cfg.IsProduction() && cfg.Admin.Password == admin.DefaultPassword {
		log.Warn("admin password is the demo default; set ADMIN_PASSWORD")
	}

	s := &catalog.Server{
		Store: store,
		Admin: admin.NewServer(store, creds, log.Named("admin")),
		Log:   log,
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Server.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (kv.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		log.Info("durable store: memory", zap.Int("quota_bytes", cfg.Store.QuotaBytes))
		return kv.NewMemBackend(cfg.Store.QuotaBytes).Open(), nil
	}

	log.Info("durable store: postgres")
	pg, err := kv.OpenPostgres(ctx, cfg.Store.DatabaseURL, log.Named("kv"))
	if err != nil {
		return nil, err
	}
	return pg, nil
}
