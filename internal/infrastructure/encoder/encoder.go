package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/jitter"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Методы сервиса эмбеддингов. Сообщения: стандартные wrapperspb/structpb,
// поэтому сгенерированный клиент не нужен.
const (
	ServiceName      = "visualsearch.encoder.v1.Encoder"
	EmbedImageMethod = "/" + ServiceName + "/EmbedImage"
	EmbedTextsMethod = "/" + ServiceName + "/EmbedTexts"
)

// Encoder это клиент внешнего сервиса эмбеддингов с ограничением конкурентности и повторами.
type Encoder struct {
	conn    grpc.ClientConnInterface
	health  healthpb.HealthClient
	sem     chan struct{}
	policy  jitter.Policy
	timeout time.Duration
	logger  logger.Logger
}

func NewEncoder(conn grpc.ClientConnInterface, cfg *cfg.MLServiceCfg, logger logger.Logger) *Encoder {
	const (
		baseJitter = 200 * time.Millisecond
		maxJitter  = 5 * time.Second
	)

	return &Encoder{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
		sem:    make(chan struct{}, max(cfg.MaxConcurrent, 1)),
		policy: jitter.Policy{
			Attempts: cfg.MaxRetries,
			Base:     baseJitter,
			Max:      maxJitter,
			Jitter:   jitter.DefaultJitter,
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// EmbedImage возвращает вектор изображения (PNG/JPEG байты).
func (m *Encoder) EmbedImage(ctx context.Context, image []byte) (*usecase.EmbedRes, error) {
	const op = "Encoder.EmbedImage"

	var res structpb.Struct
	if err := m.invoke(ctx, EmbedImageMethod, wrapperspb.Bytes(image), &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := floatList(res.GetFields()["vector"])
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(vector) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVectors)
	}

	return usecase.NewEmbedRes(vector, res.GetFields()["model_version"].GetStringValue()), nil
}

// EmbedTexts возвращает векторы текстов в том же порядке.
func (m *Encoder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	const op = "Encoder.EmbedTexts"

	values := make([]any, len(texts))
	for i, t := range texts {
		values[i] = t
	}
	req, err := structpb.NewList(values)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var res structpb.Struct
	if err := m.invoke(ctx, EmbedTextsMethod, req, &res); err != nil {
		return nil, e.Wrap(op, err)
	}

	rows := res.GetFields()["vectors"].GetListValue().GetValues()
	if len(rows) != len(texts) {
		return nil, e.Wrap(op, fmt.Errorf("got %d vectors for %d texts", len(rows), len(texts)))
	}

	vectors := make([][]float32, len(rows))
	for i, row := range rows {
		if vectors[i], err = floatList(row); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	return vectors, nil
}

// Ping проверяет состояние сервиса через стандартный health-сервис.
func (m *Encoder) Ping(ctx context.Context) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	res, err := m.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return e.Wrap("Encoder.Ping", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return e.Wrap("Encoder.Ping", fmt.Errorf("%w: status %s", e.ErrEncoderUnavailable, res.GetStatus()))
	}
	return nil
}

// invoke выполняет вызов с семафором и повторами на временных ошибках.
func (m *Encoder) invoke(ctx context.Context, method string, req, res any) error {
	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	return jitter.Retry(ctx, m.policy, retryable,
		func(attempt int, wait time.Duration, err error) {
			m.logger.Warnf("encoder call %s failed, retrying in %v (attempt %d): %v", method, wait, attempt, err)
		},
		func(ctx context.Context) error {
			callCtx, cancel := m.withTimeout(ctx)
			defer cancel()
			return m.conn.Invoke(callCtx, method, req, res)
		},
	)
}

func (m *Encoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func floatList(v *structpb.Value) ([]float32, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected a list of numbers", e.ErrEmptyVectors)
	}

	out := make([]float32, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("vector component %d is %T, expected number", i, item.GetKind())
		}
		out[i] = float32(n.NumberValue)
	}
	return out, nil
}
