package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// MessageReader: часть kafka.Reader, которой пользуется ReloadConsumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReloadConsumer слушает события о новых поколениях и перезагружает индекс сервиса поиска.
// Каждый экземпляр сервиса читает топик своей группой, поэтому событие получают все реплики.
type ReloadConsumer struct {
	reader  MessageReader
	search  usecase.SearchUC
	logger  logger.Logger
	backoff time.Duration
	wg      sync.WaitGroup
}

func NewReloadConsumer(reader MessageReader, search usecase.SearchUC, logger logger.Logger) *ReloadConsumer {
	const defaultBackoff = 2 * time.Second

	return &ReloadConsumer{
		reader:  reader,
		search:  search,
		logger:  logger,
		backoff: defaultBackoff,
	}
}

// NewReader создаёт kafka.Reader для топика поколений.
func NewReader(cfg *cfg.KafkaCfg) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     time.Second,
	})
}

func (c *ReloadConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Stop закрывает reader и дожидается выхода цикла чтения.
func (c *ReloadConsumer) Stop() error {
	err := c.reader.Close()
	c.wg.Wait()
	return err
}

func (c *ReloadConsumer) run(ctx context.Context) {
	c.logger.Infof("reload consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Infof("reload consumer stopped")
				return
			}
			c.logger.Warnf("kafka fetch failed: %v. Retrying in %v", err, c.backoff)
			select {
			case <-time.After(c.backoff):
				continue
			case <-ctx.Done():
				return
			}
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warnf("kafka commit failed: %v", err)
		}
	}
}

// handle перезагружает индекс. Битое событие или неудачная перезагрузка не останавливают цикл:
// следующее событие или ручной reload повторят попытку.
func (c *ReloadConsumer) handle(ctx context.Context, msg kafka.Message) {
	var event domain.IndexPublishedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warnf("skip malformed index event at offset %d: %v", msg.Offset, e.Wrap("ReloadConsumer.handle", err))
		return
	}

	res, err := c.search.Reload(ctx)
	if err != nil {
		c.logger.Errorf(err, "reload after generation %s failed", event.Generation)
		return
	}

	if res.Changed {
		c.logger.Infof("switched to generation %s (%d images) on event %s", res.Generation, res.Images, event.EventID)
	} else {
		c.logger.Debugf("generation %s already loaded", res.Generation)
	}
}
