package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/phash"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc вызывается после обработки каждого изображения.
type ProgressFunc func(done, total int)

// IndexerUseCase: офлайн-сборка поколения индекса из каталога.
type IndexerUseCase struct {
	catalog    CatalogRepository
	downloader ImageDownloader
	normalizer ImageNormalizer
	encoder    EncoderInfra
	artifacts  ArtifactRepository
	cfg        *cfg.IndexerCfg
	backend    string
	logger     logger.Logger

	// необязательные
	remote     ArtifactRemote
	embeddings EmbeddingRepository
	batchSize  int
	publisher  EventPublisher
	history    BuildHistoryRepository
	progress   ProgressFunc
}

func NewIndexerUC(
	catalog CatalogRepository,
	downloader ImageDownloader,
	normalizer ImageNormalizer,
	encoder EncoderInfra,
	artifacts ArtifactRepository,
	cfg *cfg.IndexerCfg,
	backend string,
	logger logger.Logger,
) *IndexerUseCase {
	return &IndexerUseCase{
		catalog:    catalog,
		downloader: downloader,
		normalizer: normalizer,
		encoder:    encoder,
		artifacts:  artifacts,
		cfg:        cfg,
		backend:    backend,
		logger:     logger,
	}
}

func (i *IndexerUseCase) WithRemote(remote ArtifactRemote) *IndexerUseCase {
	i.remote = remote
	return i
}

func (i *IndexerUseCase) WithEmbeddingMirror(repo EmbeddingRepository, batchSize int) *IndexerUseCase {
	i.embeddings = repo
	i.batchSize = batchSize
	return i
}

func (i *IndexerUseCase) WithPublisher(publisher EventPublisher) *IndexerUseCase {
	i.publisher = publisher
	return i
}

func (i *IndexerUseCase) WithHistory(history BuildHistoryRepository) *IndexerUseCase {
	i.history = history
	return i
}

func (i *IndexerUseCase) WithProgress(progress ProgressFunc) *IndexerUseCase {
	i.progress = progress
	return i
}

type imageJob struct {
	product  *domain.CatalogProduct
	imageURL string
}

type imageResult struct {
	hash         phash.Hash
	vector       []float32
	modelVersion string
	err          error
}

// Build собирает новое поколение и публикует его. Изображения, которые не удалось
// скачать, декодировать или закодировать, пропускаются и попадают в отчёт.
func (i *IndexerUseCase) Build(ctx context.Context) (*domain.BuildReport, error) {
	const op = "IndexerUseCase.Build"

	report := domain.NewBuildReport(newGenerationID(time.Now()), time.Now().UTC())
	i.recordStart(ctx, report)

	err := i.build(ctx, report)

	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.Status = domain.BuildFailed
		report.Error = err.Error()
	} else {
		report.Status = domain.BuildSucceeded
	}
	i.recordFinish(report)

	if err != nil {
		return report, e.Wrap(op, err)
	}

	i.logger.Infof(
		"generation %s built in %v: products=%d images=%d/%d skipped=%d",
		report.Generation, report.Duration(), report.Products, report.ImagesIndexed, report.ImagesTotal, len(report.Skipped),
	)
	return report, nil
}

func (i *IndexerUseCase) build(ctx context.Context, report *domain.BuildReport) error {
	products, err := i.catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	report.Products = len(products)

	jobs := make([]imageJob, 0, len(products))
	for idx := range products {
		for _, url := range products[idx].ImageURLs {
			if url == "" {
				continue
			}
			jobs = append(jobs, imageJob{product: &products[idx], imageURL: url})
		}
	}
	report.ImagesTotal = len(jobs)
	i.logger.Infof("indexing %d images of %d products with %d workers", len(jobs), len(products), i.cfg.Workers)

	results, err := i.processAll(ctx, jobs)
	if err != nil {
		return err
	}

	snapshot, err := i.assemble(report, jobs, results)
	if err != nil {
		return err
	}

	// удалённая копия загружается до переключения CURRENT: при сбое остаётся прежнее поколение
	var upload func(dir string) error
	if i.remote != nil {
		upload = func(dir string) error {
			if err := i.remote.Upload(ctx, report.Generation, dir); err != nil {
				return fmt.Errorf("upload generation %s: %w", report.Generation, err)
			}
			return nil
		}
	}
	if err := i.artifacts.Publish(ctx, snapshot, upload); err != nil {
		return err
	}

	if i.embeddings != nil {
		if err := i.mirrorEmbeddings(ctx, snapshot); err != nil {
			i.logger.Warnf("failed to mirror embeddings of %s: %v", report.Generation, err)
		}
	}

	if i.publisher != nil {
		event := NewIndexPublishedEvent(uuid.NewString(), report, i.remote != nil)
		if err := i.publisher.PublishIndexPublished(ctx, event); err != nil {
			i.logger.Warnf("failed to publish index event for %s: %v", report.Generation, err)
		}
	}

	return nil
}

// processAll обрабатывает изображения параллельно. Результаты остаются в порядке заданий,
// поэтому слоты детерминированы независимо от порядка завершения воркеров.
func (i *IndexerUseCase) processAll(ctx context.Context, jobs []imageJob) ([]imageResult, error) {
	results := make([]imageResult, len(jobs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(i.cfg.Workers, 1))

	for idx, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := i.processImage(gctx, job)
			if res.err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[idx] = res

			if i.progress != nil {
				i.progress(int(done.Add(1)), len(jobs))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *IndexerUseCase) processImage(ctx context.Context, job imageJob) imageResult {
	data, err := i.downloader.Download(ctx, job.imageURL)
	if err != nil {
		return imageResult{err: err}
	}

	canonical, err := i.normalizer.Normalize(data)
	if err != nil {
		return imageResult{err: err}
	}

	embed, err := i.encoder.EmbedImage(ctx, canonical.PNG)
	if err != nil {
		return imageResult{err: errors.Join(e.ErrEncoderUnavailable, err)}
	}

	return imageResult{
		hash:         phash.Compute(canonical.Image),
		vector:       embed.Vector,
		modelVersion: embed.ModelVersion,
	}
}

func (i *IndexerUseCase) assemble(report *domain.BuildReport, jobs []imageJob, results []imageResult) (*searchindex.Snapshot, error) {
	dim, modelVersion := 0, ""
	for _, res := range results {
		if res.err == nil && len(res.vector) > 0 {
			dim, modelVersion = len(res.vector), res.modelVersion
			break
		}
	}

	skip := func(job imageJob, err error) {
		report.Skipped = append(report.Skipped, domain.SkippedImage{
			ProductURL: job.product.URL,
			ImageURL:   job.imageURL,
			Reason:     err.Error(),
		})
		i.logger.Debugf("skipped %s: %v", job.imageURL, err)
	}

	if dim == 0 {
		for idx, job := range jobs {
			if results[idx].err != nil {
				skip(job, results[idx].err)
			}
		}
		return nil, e.ErrNoImagesIndexed
	}

	builder, err := searchindex.NewBuilder(i.backend, dim, len(jobs))
	if err != nil {
		return nil, err
	}

	for idx, job := range jobs {
		res := results[idx]
		if res.err != nil {
			skip(job, res.err)
			continue
		}
		if _, err := builder.Append(res.hash, res.vector, domain.NewImageMetadata(job.product, job.imageURL)); err != nil {
			skip(job, err)
		}
	}
	report.ImagesIndexed = builder.Len()

	return builder.Build(domain.Manifest{
		Generation:   report.Generation,
		BuiltAt:      report.StartedAt,
		ModelVersion: modelVersion,
	})
}

func (i *IndexerUseCase) mirrorEmbeddings(ctx context.Context, snapshot *searchindex.Snapshot) error {
	generation := snapshot.Manifest.Generation
	batchSize := max(i.batchSize, 1)

	batch := make([]domain.Embedding, 0, batchSize)
	for slot := 0; slot < snapshot.Len(); slot++ {
		vec, _ := snapshot.Vectors.Vector(slot)
		meta, _ := snapshot.Metadata.Get(slot)
		batch = append(batch, *domain.NewEmbedding(
			EmbeddingPointID(generation, slot),
			vec,
			domain.NewPayload(generation, slot, meta),
		))

		if len(batch) == batchSize {
			if err := i.embeddings.Upsert(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := i.embeddings.Upsert(ctx, batch); err != nil {
			return err
		}
	}

	return i.embeddings.DeleteOtherGenerations(ctx, generation)
}

// Verify проверяет контрольные суммы текущего поколения.
func (i *IndexerUseCase) Verify(ctx context.Context) (*domain.Manifest, error) {
	const op = "IndexerUseCase.Verify"

	generation, err := i.artifacts.CurrentGeneration()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	manifest, err := i.artifacts.Verify(generation)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := i.artifacts.LoadCurrent(ctx, i.backend); err != nil {
		return nil, e.Wrap(op, err)
	}
	return manifest, nil
}

// RunEvery пересобирает индекс с заданным периодом до отмены контекста.
// Ошибка отдельной сборки не останавливает расписание.
func (i *IndexerUseCase) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := i.Build(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			i.logger.Errorf(err, "scheduled build failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (i *IndexerUseCase) recordStart(ctx context.Context, report *domain.BuildReport) {
	if i.history == nil {
		return
	}
	if err := i.history.Start(ctx, report); err != nil {
		i.logger.Warnf("failed to record build start: %v", err)
	}
}

// recordFinish пишет итог сборки даже если исходный контекст уже отменён.
func (i *IndexerUseCase) recordFinish(report *domain.BuildReport) {
	if i.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.history.Finish(ctx, report); err != nil {
		i.logger.Warnf("failed to record build result: %v", err)
	}
}

// EmbeddingPointID: детерминированный идентификатор точки в векторном хранилище.
func EmbeddingPointID(generation string, slot int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%d", generation, slot))).String()
}

func newGenerationID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}
