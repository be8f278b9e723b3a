package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName: имя сервиса в grpc.health.v1 для проверок готовности.
const ServiceName = "visualsearch.v1.Search"

// HealthService отражает готовность поиска в стандартном health-сервисе:
// SERVING, когда поколение индекса загружено, иначе NOT_SERVING.
type HealthService struct {
	server   *health.Server
	searchUC usecase.SearchUC
	logger   logger.Logger

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthService(searchUC usecase.SearchUC, logger logger.Logger) *HealthService {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthService{
		server:   srv,
		searchUC: searchUC,
		logger:   logger,
		last:     healthpb.HealthCheckResponse_NOT_SERVING,
	}
}

func (h *HealthService) Server() *health.Server {
	return h.server
}

// Sync выставляет статус по текущему состоянию индекса.
func (h *HealthService) Sync(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if res := h.searchUC.Health(ctx); res.IndexLoaded || res.HashIndexLoaded {
		status = healthpb.HealthCheckResponse_SERVING
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if status != h.last {
		h.logger.Infof("grpc health status: %s", status)
		h.last = status
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Watch периодически вызывает Sync до отмены ctx.
func (h *HealthService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sync(ctx)
		}
	}
}

// Shutdown переводит все сервисы в NOT_SERVING перед остановкой сервера.
func (h *HealthService) Shutdown() {
	h.server.Shutdown()
}
