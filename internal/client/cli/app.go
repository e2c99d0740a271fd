package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaupload/internal/client/client"
	"github.com/dmitrijs2005/mediaupload/internal/client/config"
	"github.com/dmitrijs2005/mediaupload/internal/client/connectivity"
	"github.com/dmitrijs2005/mediaupload/internal/client/queue"
	"github.com/dmitrijs2005/mediaupload/internal/client/retry"
	"github.com/dmitrijs2005/mediaupload/internal/client/services"
	"github.com/dmitrijs2005/mediaupload/internal/client/transport"
	"github.com/dmitrijs2005/mediaupload/internal/client/uploader"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Connectivity is the part of the connectivity monitor the REPL uses.
type Connectivity interface {
	Online() bool
	NetworkType() string
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	authService  services.AuthService
	mediaService services.MediaService
	monitor      *connectivity.Monitor
	conn         Connectivity
	queue        *queue.Queue
	registry     *prometheus.Registry
	db           *sql.DB
	health       *client.HealthClient
	userName     string
	in           *bufio.Scanner
	out          io.Writer

	mu   sync.Mutex
	Mode Mode
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	repos := client.NewRepositories(db)

	api := client.NewHTTPClient(c.BackendURL, client.WithHTTPClient(&http.Client{}))

	health, err := client.NewHealthClient(c.ServerEndpointAddr, "mediasrv")
	if err != nil {
		db.Close()
		return nil, err
	}

	monitor := connectivity.NewMonitor(c.OnlineCheckInterval, connectivity.DefaultTimeout, logger,
		connectivity.ProberFunc(api.Ping),
		health,
	)

	reg := prometheus.NewRegistry()
	observer, err := uploader.NewPrometheusObserver("mediaupload", reg)
	if err != nil {
		db.Close()
		return nil, err
	}

	policy := retry.Policy{MaxRetries: c.MaxRetries, BaseDelay: c.RetryBaseDelay}
	chain := transport.ChainConfig{
		UploadURL:         c.UploadURL,
		UploadPreset:      c.UploadPreset,
		Timeout:           c.RequestTimeout,
		ConversionTimeout: c.ConversionTimeout,
	}
	newUploader := func() *uploader.Uploader {
		return uploader.New(transport.Chain(api, chain),
			uploader.WithPolicy(policy),
			uploader.WithEnvironment(monitor),
			uploader.WithDiagnosticsSink(repos.Diagnostics),
			uploader.WithObserver(observer),
			uploader.WithLogger(logger),
		)
	}

	a := &App{
		config:      c,
		logger:      logger,
		authService: services.NewAuthService(api),
		monitor:     monitor,
		conn:        monitor,
		registry:    reg,
		db:          db,
		health:      health,
		in:          bufio.NewScanner(os.Stdin),
		out:         os.Stdout,
	}

	// the queue replays through its own orchestrator so an interactive
	// upload never supersedes a replay in flight
	a.queue = queue.New(newUploader(), repos.Queue,
		queue.WithLogger(logger),
		queue.WithNotifier(a.notify),
	)
	a.mediaService = services.NewMediaService(newUploader(), a.queue, repos.Diagnostics)

	monitor.Subscribe(func(online bool) {
		a.queue.SetOnline(online)
		if online {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
	})

	return a, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		fmt.Fprintf(a.out, "\nSwitched to %s mode\n", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) notify(n queue.Notice) {
	fmt.Fprintf(a.out, "\n[queue] %s\n", n.Message)
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	if err := a.queue.Start(ctx); err != nil {
		a.logger.Error(ctx, "offline queue unavailable", "error", err)
		return
	}
	defer a.queue.Stop()

	go a.monitor.Run(ctx)

	if a.config.MetricsAddr != "" {
		go a.serveMetrics(ctx)
	}

	a.Root(ctx)
}

func (a *App) serveMetrics(ctx context.Context) {
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error(ctx, "metrics server stopped", "error", err)
	}
}

func (a *App) close() {
	if err := a.authService.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing API client", "error", err)
	}
	if err := a.health.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing health client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}
