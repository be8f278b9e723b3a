package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/jitter"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

// errPermanent помечает ответы, которые бессмысленно повторять (404 и т.п.).
var errPermanent = errors.New("permanent http error")

// Downloader скачивает изображения каталога с повторами и экспоненциальной задержкой.
type Downloader struct {
	client    *http.Client
	policy    jitter.Policy
	userAgent string
	maxBytes  int64
	logger    logger.Logger
}

func NewDownloader(cfg *cfg.IndexerCfg, logger logger.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: cfg.DownloadTimeout},
		policy: jitter.Policy{
			Attempts: cfg.DownloadRetries,
			Base:     cfg.RetryDelay,
			Max:      8 * cfg.RetryDelay,
			Jitter:   jitter.DefaultJitter,
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxImageSize,
		logger:    logger,
	}
}

// Download возвращает байты изображения или ошибку, обёрнутую в e.ErrDownloadFailed.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	const op = "Downloader.Download"

	var data []byte
	err := jitter.Retry(ctx, d.policy,
		func(err error) bool { return !errors.Is(err, errPermanent) && !errors.Is(err, e.ErrImageTooLarge) },
		func(attempt int, wait time.Duration, err error) {
			d.logger.Debugf("download %s failed (attempt %d), retrying in %v: %v", url, attempt, wait, err)
		},
		func(ctx context.Context) error {
			var err error
			data, err = d.fetch(ctx, url)
			return err
		},
	)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %s: %w", e.ErrDownloadFailed, url, err))
	}

	return data, nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errPermanent, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", errPermanent, err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxBytes {
		return nil, e.ErrImageTooLarge
	}

	return data, nil
}
