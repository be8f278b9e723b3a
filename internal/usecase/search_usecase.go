package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/DRSN-tech/visual-search/pkg/phash"
)

const cacheWriteTimeout = 500 * time.Millisecond

// SearchUseCase выполняет онлайн-поиск: сначала перцептивный хеш, затем семантический поиск по эмбеддингам.
// Загруженное поколение подменяется атомарно, запросы в полёте дорабатывают на старом.
type SearchUseCase struct {
	artifacts  ArtifactRepository
	remote     ArtifactRemote
	encoder    EncoderInfra
	normalizer ImageNormalizer
	categories *CategoryTable
	detector   *CategoryDetector
	cacheRepo  SearchCacheRepository
	cfg        *cfg.SearchCfg
	backend    string
	logger     logger.Logger

	snapshot atomic.Pointer[searchindex.Snapshot]
	reloadMu sync.Mutex
}

// NewSearchUC создаёт сценарий поиска. remote и cacheRepo могут быть nil.
func NewSearchUC(
	artifacts ArtifactRepository,
	remote ArtifactRemote,
	encoder EncoderInfra,
	normalizer ImageNormalizer,
	categories *CategoryTable,
	cacheRepo SearchCacheRepository,
	cfg *cfg.SearchCfg,
	backend string,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		artifacts:  artifacts,
		remote:     remote,
		encoder:    encoder,
		normalizer: normalizer,
		categories: categories,
		detector:   NewCategoryDetector(encoder, categories.Prompts, cfg.CategoryFloor, logger),
		cacheRepo:  cacheRepo,
		cfg:        cfg,
		backend:    backend,
		logger:     logger,
	}
}

// Search ищет товар по изображению.
func (s *SearchUseCase) Search(ctx context.Context, req *SearchReq) (domain.SearchResult, error) {
	const op = "SearchUseCase.Search"

	snap := s.snapshot.Load()
	if snap == nil {
		return nil, e.Wrap(op, e.ErrServiceNotReady)
	}
	if len(req.Image) == 0 {
		return nil, e.Wrap(op, e.ErrMissingFile)
	}
	if s.cfg.MaxImageSize > 0 && int64(len(req.Image)) > s.cfg.MaxImageSize {
		return nil, e.Wrap(op, e.ErrImageTooLarge)
	}

	cacheKey := s.cacheKey(snap, req.Image)
	if cached := s.cachedResult(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	canonical, err := s.normalizer.Normalize(req.Image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result, err := s.search(ctx, snap, canonical)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.cacheResult(cacheKey, result)
	return result, nil
}

func (s *SearchUseCase) search(ctx context.Context, snap *searchindex.Snapshot, img *CanonicalImage) (domain.SearchResult, error) {
	// Уровень 1: перцептивный хеш
	hash := phash.Compute(img.Image)
	slot, dist, found := snap.Hashes.FindNearest(hash, s.cfg.ExactMatchHashThreshold)
	if found {
		meta, ok := snap.Metadata.Get(slot)
		if !ok {
			return nil, e.Wrap(fmt.Sprintf("hash slot %d beyond metadata (%d)", slot, snap.Metadata.Len()), e.ErrIndexInconsistent)
		}
		s.logger.Debugf("exact match: slot=%d distance=%d product=%s", slot, dist, meta.ProductURL)
		return &domain.ExactMatch{
			Product:         meta,
			Category:        s.categories.Classify(meta.ProductName),
			HammingDistance: dist,
		}, nil
	}

	// Уровень 2: семантический поиск
	embed, err := s.encoder.EmbedImage(ctx, img.PNG)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.Join(e.ErrEncoderUnavailable, err)
	}
	if len(embed.Vector) != snap.Vectors.Dimension() {
		return nil, e.Wrap(
			fmt.Sprintf("query dim %d, index dim %d", len(embed.Vector), snap.Vectors.Dimension()),
			e.ErrDimensionMismatch,
		)
	}
	query := searchindex.Normalize(embed.Vector)

	category, categoryScore := s.detector.Detect(ctx, query)
	k := s.cfg.KWithoutCategory
	if category != domain.CategoryUnknown {
		k = s.cfg.KWithCategory
	}
	s.logger.Debugf("detected category=%q score=%.3f k=%d", category, categoryScore, k)

	hits, err := snap.Vectors.Search(query, k)
	if err != nil {
		return nil, err
	}

	ranked, err := RankProducts(hits, snap.Metadata, s.categories)
	if err != nil {
		return nil, err
	}

	topN := ranked[:min(s.cfg.TopN, len(ranked))]
	if len(topN) == 0 {
		return &domain.NoMatch{DetectedCategory: category, Top5: []domain.RankedProduct{}}, nil
	}

	best := topN[0]
	confidence := Band(best.CombinedScore, s.thresholds())
	if confidence == domain.ConfidenceNone {
		return &domain.NoMatch{
			BestScore:        best.CombinedScore,
			DetectedCategory: category,
			Top5:             topN,
		}, nil
	}

	return &domain.SimilarMatches{
		Top:              best,
		Confidence:       confidence,
		DetectedCategory: category,
		Top5:             topN,
	}, nil
}

// Reload загружает текущее поколение (при наличии удалённого хранилища: сначала синхронизирует его)
// и атомарно подменяет индекс. При ошибке остаётся прежнее поколение.
func (s *SearchUseCase) Reload(ctx context.Context) (*ReloadRes, error) {
	const op = "SearchUseCase.Reload"

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.remote != nil {
		if err := s.syncRemote(ctx); err != nil {
			s.logger.Warnf("remote artifact sync failed, using local generation: %v", e.Wrap(op, err))
		}
	}

	current := s.snapshot.Load()
	generation, err := s.artifacts.CurrentGeneration()
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if current != nil && current.Manifest.Generation == generation {
		return &ReloadRes{Generation: generation, Images: current.Len(), Changed: false}, nil
	}

	snap, err := s.artifacts.LoadCurrent(ctx, s.backend)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.snapshot.Store(snap)
	// эмбеддинги описаний категорий считаются заново для каждого поколения
	s.detector.Reset()
	s.logger.Infof(
		"index generation %s loaded: images=%d products=%d dim=%d backend=%s",
		snap.Manifest.Generation, snap.Len(), snap.Manifest.Products, snap.Manifest.Dimension, s.backend,
	)

	return &ReloadRes{Generation: snap.Manifest.Generation, Images: snap.Len(), Changed: true}, nil
}

func (s *SearchUseCase) syncRemote(ctx context.Context) error {
	generation, err := s.remote.CurrentGeneration(ctx)
	if err != nil {
		return err
	}
	if !s.artifacts.HasGeneration(generation) {
		s.logger.Infof("fetching generation %s from remote storage", generation)
		err = s.artifacts.Install(ctx, generation, func(dir string) error {
			return s.remote.Download(ctx, generation, dir)
		})
		if err != nil {
			return err
		}
	}
	return s.artifacts.Activate(generation)
}

// Health сообщает о готовности индекса и доступности энкодера.
func (s *SearchUseCase) Health(ctx context.Context) *HealthRes {
	res := &HealthRes{
		ModelLoaded: s.encoder.Ping(ctx) == nil,
	}

	if snap := s.snapshot.Load(); snap != nil {
		res.IndexLoaded = snap.Vectors.Len() > 0
		res.HashIndexLoaded = snap.Hashes.Len() > 0
		res.IndexedImages = snap.Len()
		res.Generation = snap.Manifest.Generation
	}

	return res
}

// Stats возвращает статистику загруженного поколения.
func (s *SearchUseCase) Stats() (*StatsRes, error) {
	const op = "SearchUseCase.Stats"

	snap := s.snapshot.Load()
	if snap == nil {
		return nil, e.Wrap(op, e.ErrServiceNotReady)
	}

	return &StatsRes{
		TotalVectors:  snap.Vectors.Len(),
		TotalImages:   snap.Len(),
		HashIndexSize: snap.Hashes.Len(),
		Products:      snap.Manifest.Products,
		Generation:    snap.Manifest.Generation,
		BuiltAt:       snap.Manifest.BuiltAt,
		ModelVersion:  snap.Manifest.ModelVersion,
		Backend:       s.backend,
		Thresholds:    s.thresholds(),
	}, nil
}

func (s *SearchUseCase) thresholds() Thresholds {
	return Thresholds{
		ExactMatchHash: s.cfg.ExactMatchHashThreshold,
		NearExactHash:  s.cfg.NearExactHashThreshold,
		High:           s.cfg.HighThreshold,
		Medium:         s.cfg.MediumThreshold,
		Low:            s.cfg.LowThreshold,
		CategoryFloor:  s.cfg.CategoryFloor,
	}
}

func (s *SearchUseCase) cacheKey(snap *searchindex.Snapshot, image []byte) string {
	sum := sha256.Sum256(image)
	return snap.Manifest.Generation + ":" + hex.EncodeToString(sum[:])
}

func (s *SearchUseCase) cachedResult(ctx context.Context, key string) domain.SearchResult {
	if s.cacheRepo == nil {
		return nil
	}

	result, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		s.logger.Warnf("search cache get failed: %v", err)
		return nil
	}
	return result
}

// cacheResult сохраняет результат в фоне, не задерживая ответ.
func (s *SearchUseCase) cacheResult(key string, result domain.SearchResult) {
	if s.cacheRepo == nil {
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := s.cacheRepo.Set(bgCtx, key, result); err != nil {
			s.logger.Warnf("Failed to cache search result in background: %v", err)
		}
	}()
}
