package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itiky/blogsync/config"
	"github.com/itiky/blogsync/logging"
	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/repository"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/service/client"
	"github.com/itiky/blogsync/session"
	"github.com/itiky/blogsync/storage/sqlite"
	"github.com/itiky/blogsync/viewmodel"
)

const (
	FlagToken         = "token"
	FlagAccountPk     = "account-pk"
	FlagOffline       = "offline"
	FlagMetricsAddr   = "metrics-addr"
	FlagMonitorPeriod = "monitor-period"
)

// app is the client side object graph.
type app struct {
	cfg     config.Config
	cache   *sqlite.Store
	session *session.Manager
	repo    *repository.BlogRepository
	vm      *viewmodel.BlogViewModel
	metrics *http.Server
}

// Close releases the cache, stops the metrics endpoint and reports the API calls made.
func (a *app) Close() {
	a.vm.Cancel()
	if err := a.cache.Close(); err != nil {
		log.Error().Err(err).Msg("cache close")
	}

	client.GetMonitor().Stop()
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown")
		}
	}

	report := client.GetMonitor().Report()
	log.Debug().
		Int("calls", report.CallsServed).
		Int("failed", report.CallsFailed).
		Float64("avgCallMs", report.AvgCallDurMs).
		Msg("api calls")
}

// newApp wires the client side from the configuration and the session flags.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg := loadConfig(cmd)

	token, err := cmd.Flags().GetString(FlagToken)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagToken, err)
	}
	if token == "" {
		token = cfg.AuthToken
	}
	accountPk, err := cmd.Flags().GetInt(FlagAccountPk)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagAccountPk, err)
	}
	if accountPk == 0 {
		accountPk = cfg.AccountPk
	}
	offline, err := cmd.Flags().GetBool(FlagOffline)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagOffline, err)
	}
	metricsAddr, err := cmd.Flags().GetString(FlagMetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagMetricsAddr, err)
	}
	monitorPeriod, err := cmd.Flags().GetDuration(FlagMonitorPeriod)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagMonitorPeriod, err)
	}

	api, err := client.NewClient(cfg.BaseURL, cfg.NetworkTimeout, logging.For("api-client"))
	if err != nil {
		return nil, fmt.Errorf("client.NewClient: %w", err)
	}

	checker := session.Static(false)
	if !offline {
		if checker, err = session.DialChecker(cfg.BaseURL, cfg.NetworkTimeout); err != nil {
			return nil, fmt.Errorf("session.DialChecker: %w", err)
		}
	}
	sessionMgr := session.NewManager(checker, logging.For("session"))
	if err := sessionMgr.Login(model.AuthToken{AccountPk: accountPk, Token: token}); err != nil {
		return nil, fmt.Errorf("login (set --%s or auth_token): %w", FlagToken, err)
	}

	cache, err := sqlite.Open(ctx, cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}

	reconciler, err := resource.NewReconciler("BlogRepository", cfg.NetworkTimeout, cfg.NetworkDelay, cfg.CacheDelay, logging.For("reconciler"))
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("resource.NewReconciler: %w", err)
	}

	repo, err := repository.NewBlogRepository(api, cache, sessionMgr, reconciler, cfg.PageSize, logging.For("repository"))
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("repository.NewBlogRepository: %w", err)
	}

	vm, err := viewmodel.NewBlogViewModel(repo, sessionMgr, cfg.PrefsPath, logging.For("viewmodel"))
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("viewmodel.NewBlogViewModel: %w", err)
	}

	client.GetMonitor().Start(monitorPeriod)

	return &app{
		cfg:     cfg,
		cache:   cache,
		session: sessionMgr,
		repo:    repo,
		vm:      vm,
		metrics: serveMetrics(metricsAddr),
	}, nil
}

// serveMetrics exposes the default prometheus registry on addr, nil for an empty addr.
func serveMetrics(addr string) *http.Server {
	if addr == "" {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	return srv
}

// addSessionFlags registers the flags newApp reads.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagToken, "", "(optional) API token, defaults to the configured auth_token")
	cmd.Flags().Int(FlagAccountPk, 0, "(optional) account pk, defaults to the configured account_pk")
	cmd.Flags().Bool(FlagOffline, false, "(optional) skip the network and use the cache only")
	cmd.Flags().String(FlagMetricsAddr, "", "(optional) serve prometheus metrics on this address while the command runs")
	cmd.Flags().Duration(FlagMonitorPeriod, 30*time.Second, "(optional) API call stats log period, 0 disables it")
}
