package grpc

import (
	"context"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type healthOnlyUC struct {
	loaded bool
}

func (h *healthOnlyUC) Search(context.Context, *usecase.SearchReq) (domain.SearchResult, error) {
	return nil, nil
}
func (h *healthOnlyUC) Reload(context.Context) (*usecase.ReloadRes, error) { return nil, nil }
func (h *healthOnlyUC) Stats() (*usecase.StatsRes, error)                  { return nil, nil }
func (h *healthOnlyUC) Health(context.Context) *usecase.HealthRes {
	return &usecase.HealthRes{IndexLoaded: h.loaded, HashIndexLoaded: h.loaded}
}

func check(t *testing.T, svc *HealthService, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	res, err := svc.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return res.GetStatus()
}

func TestHealthServiceFollowsIndexState(t *testing.T) {
	uc := &healthOnlyUC{}
	svc := NewHealthService(uc, logger.Nop())

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, svc, ServiceName))

	uc.loaded = true
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, svc.Sync(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, svc, ServiceName))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, svc, ""))

	svc.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, svc, ServiceName))
}
