package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/visual-search/internal/cfg"
	v1Grpc "github.com/DRSN-tech/visual-search/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/visual-search/internal/delivery/v1/http"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/imaging"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/kafka"
	"github.com/DRSN-tech/visual-search/internal/repository/artifact"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/closer"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthWatchInterval = 5 * time.Second
)

// App собирает сервис поиска: HTTP API, gRPC health и подписка на новые поколения индекса.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	closer   *closer.Closer
	searchUC *usecase.SearchUseCase
	httpSrv  *v1Http.Server
	grpcSrv  *v1Grpc.GRPCServer
	health   *v1Grpc.HealthService
	consumer *kafka.ReloadConsumer
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	ctx := context.Background()
	cl := closer.NewCloser(0)

	app, err := newApp(ctx, cfg, cl, logger)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if cerr := cl.Close(closeCtx); cerr != nil {
			logger.Warnf("cleanup after failed init: %v", cerr)
		}
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, cl *closer.Closer, logger logger.Logger) (*App, error) {
	enc, err := initEncoder(cfg, cl, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	categories, err := initCategories(cfg, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	remote, err := initRemote(ctx, cfg, logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cacheRepo := initCache(ctx, cfg, cl, logger)
	artifacts := artifact.NewFSRepository(cfg.Index, logger)

	searchUC := usecase.NewSearchUC(
		artifacts,
		remote,
		enc,
		imaging.NewNormalizer(cfg.Search.TargetSize),
		categories,
		cacheRepo,
		cfg.Search,
		cfg.Index.Backend,
		logger,
	)

	r := chi.NewRouter()
	v1Http.NewRouter(r, logger).Init(searchUC, cfg.Search.MaxImageSize)

	health := v1Grpc.NewHealthService(searchUC, logger)
	grpcSrv := v1Grpc.NewGRPCServer(cfg.Grpc, logger)
	grpcSrv.RegisterServices(health)

	app := &App{
		cfg:      cfg,
		logger:   logger,
		closer:   cl,
		searchUC: searchUC,
		httpSrv:  v1Http.NewServer(r, cfg.Http),
		grpcSrv:  grpcSrv,
		health:   health,
	}

	if cfg.Kafka.Enabled {
		app.consumer = kafka.NewReloadConsumer(kafka.NewReader(cfg.Kafka), searchUC, logger)
	}

	return app, nil
}

// Run загружает текущее поколение, запускает серверы и блокируется до сигнала или фатальной ошибки.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Без опубликованного поколения сервис стартует неготовым и ждёт reload.
	if res, err := a.searchUC.Reload(ctx); err != nil {
		if errors.Is(err, e.ErrNoGeneration) {
			a.logger.Warnf("no index generation published yet, serving 503 until reload")
		} else {
			a.logger.Errorf(err, "failed to load index, serving 503 until reload")
		}
	} else {
		a.logger.Infof("index generation %s ready: %d images", res.Generation, res.Images)
	}

	go a.health.Watch(ctx, healthWatchInterval)

	if a.consumer != nil {
		a.consumer.Start(ctx)
		a.closer.Add(func(context.Context) error { return a.consumer.Stop() })
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.stop(cancel)
	return appErr
}

func (a *App) stop(cancel context.CancelFunc) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	a.health.Shutdown()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			a.logger.Errorf(err, "gRPC server shutdown error")
		} else {
			a.logger.Warnf("gRPC server shutdown timeout")
		}
	}

	cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("%v", err)
	}
	a.logger.Infof("Application shutdown complete")
}
