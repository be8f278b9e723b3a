package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    chan struct{}
	once      sync.Once
}

func newChanReader() *chanReader {
	return &chanReader{msgs: make(chan kafka.Message, 8), closed: make(chan struct{})}
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-r.closed:
		return kafka.Message{}, io.EOF
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *chanReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func (r *chanReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type reloadCounter struct {
	usecase.SearchUC
	mu    sync.Mutex
	calls int
	err   error
}

func (s *reloadCounter) Reload(context.Context) (*usecase.ReloadRes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.ReloadRes{Generation: "g", Images: 1, Changed: true}, nil
}

func (s *reloadCounter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func eventMessage(t *testing.T, offset int64, gen string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(&domain.IndexPublishedEvent{EventID: "e", Generation: gen})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(gen), Value: value}
}

func TestReloadConsumerReloadsOnEvent(t *testing.T) {
	reader := newChanReader()
	search := &reloadCounter{}
	consumer := NewReloadConsumer(reader, search, logger.Nop())
	consumer.Start(context.Background())

	reader.msgs <- eventMessage(t, 1, "20240101T000000Z-aaaaaaaa")
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte("{not json")}
	reader.msgs <- eventMessage(t, 3, "20240102T000000Z-bbbbbbbb")

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, consumer.Stop())

	assert.Equal(t, 2, search.count())
	assert.Equal(t, []int64{1, 2, 3}, reader.committedOffsets())
}

func TestReloadConsumerSurvivesReloadFailure(t *testing.T) {
	reader := newChanReader()
	search := &reloadCounter{err: errors.New("artifacts missing")}
	consumer := NewReloadConsumer(reader, search, logger.Nop())
	consumer.Start(context.Background())

	reader.msgs <- eventMessage(t, 1, "g1")
	reader.msgs <- eventMessage(t, 2, "g2")

	require.Eventually(t, func() bool { return search.count() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, consumer.Stop())
}

func TestReloadConsumerStopsOnContextCancel(t *testing.T) {
	reader := newChanReader()
	consumer := NewReloadConsumer(reader, &reloadCounter{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		consumer.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
