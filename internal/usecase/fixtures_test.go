package usecase_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DRSN-tech/visual-search/internal/cfg"
	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/infrastructure/imaging"
	"github.com/DRSN-tech/visual-search/internal/repository/artifact"
	"github.com/DRSN-tech/visual-search/internal/searchindex"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/stretchr/testify/require"
)

// colorEncoder возвращает средний цвет изображения как вектор (r, g, b, 0).
// Если задан override, он возвращается вместо вычисленного вектора.
type colorEncoder struct {
	imageCalls atomic.Int64
	textCalls  atomic.Int64

	mu       sync.Mutex
	override []float32
	err      error
}

func (c *colorEncoder) EmbedImage(_ context.Context, data []byte) (*usecase.EmbedRes, error) {
	c.imageCalls.Add(1)

	c.mu.Lock()
	override, err := c.override, c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if override != nil {
		return usecase.NewEmbedRes(override, "color-v1"), nil
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var r, g, b float64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r, g, b = r+float64(cr), g+float64(cg), b+float64(cb)
		}
	}
	return usecase.NewEmbedRes([]float32{float32(r), float32(g), float32(b), 0}, "color-v1"), nil
}

func (c *colorEncoder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	c.textCalls.Add(1)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func (c *colorEncoder) Ping(context.Context) error { return nil }

func (c *colorEncoder) setOverride(v []float32) {
	c.mu.Lock()
	c.override = v
	c.mu.Unlock()
}

type mapDownloader map[string][]byte

func (m mapDownloader) Download(_ context.Context, url string) ([]byte, error) {
	data, ok := m[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s: 404", e.ErrDownloadFailed, url)
	}
	return data, nil
}

type staticCatalog []domain.CatalogProduct

func (s staticCatalog) ListProducts(context.Context) ([]domain.CatalogProduct, error) {
	return s, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.IndexPublishedEvent
}

func (r *recordingPublisher) PublishIndexPublished(_ context.Context, event *domain.IndexPublishedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]domain.SearchResult
}

func (m *memoryCache) Get(_ context.Context, key string) (domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

func (m *memoryCache) Set(_ context.Context, key string, result domain.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]domain.SearchResult)
	}
	m.items[key] = result
	return nil
}

func (m *memoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func patternPNG(t *testing.T, fg color.RGBA, inside func(x, y int) bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if inside(x, y) {
				img.SetRGBA(x, y, fg)
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	red   = color.RGBA{R: 230, A: 255}
	blue  = color.RGBA{B: 230, A: 255}
	green = color.RGBA{G: 230, A: 255}
)

type fixture struct {
	catalog    staticCatalog
	downloader mapDownloader
	encoder    *colorEncoder
	artifacts  *artifact.FSRepository
	normalizer *imaging.Normalizer
	searchCfg  *cfg.SearchCfg
	indexCfg   *cfg.IndexerCfg
}

// newFixture описывает каталог из трёх товаров по два изображения. Изображение
// https://cdn.example/broken.jpg не скачивается.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	images := map[string][]byte{
		"https://cdn.example/a1.png": patternPNG(t, red, func(x, _ int) bool { return (x/50)%2 == 0 }),
		"https://cdn.example/a2.png": patternPNG(t, red, func(_, y int) bool { return (y/50)%2 == 0 }),
		"https://cdn.example/b1.png": patternPNG(t, blue, func(x, y int) bool { return (x/40+y/40)%2 == 0 }),
		"https://cdn.example/b2.png": patternPNG(t, blue, func(x, y int) bool { return (x-100)*(x-100)+(y-100)*(y-100) < 3600 }),
		"https://cdn.example/c1.png": patternPNG(t, green, func(x, y int) bool { return x > y }),
	}

	catalog := staticCatalog{
		{Name: "Rolex Submariner watch", URL: "https://shop.example/a", Price: "1000", ImageURLs: []string{"https://cdn.example/a1.png", "https://cdn.example/a2.png"}},
		{Name: "Leather tote bag", URL: "https://shop.example/b", Price: "500", ImageURLs: []string{"https://cdn.example/b1.png", "https://cdn.example/b2.png"}},
		{Name: "Aviator sunglasses", URL: "https://shop.example/c", Price: "N/A", ImageURLs: []string{"https://cdn.example/broken.jpg", "https://cdn.example/c1.png"}},
	}

	return &fixture{
		catalog:    catalog,
		downloader: images,
		encoder:    &colorEncoder{},
		artifacts:  artifact.NewFSRepository(&cfg.IndexCfg{ArtifactDir: t.TempDir(), Backend: searchindex.BackendFlat, KeepGenerations: 2}, logger.Nop()),
		normalizer: imaging.NewNormalizer(224),
		searchCfg: &cfg.SearchCfg{
			ExactMatchHashThreshold: 5,
			NearExactHashThreshold:  10,
			HighThreshold:           0.82,
			MediumThreshold:         0.72,
			LowThreshold:            0.62,
			CategoryFloor:           0.35,
			KWithCategory:           100,
			KWithoutCategory:        150,
			TopN:                    5,
			MaxImageSize:            1 << 20,
			TargetSize:              224,
		},
		indexCfg: &cfg.IndexerCfg{Workers: 3},
	}
}

func (f *fixture) indexer() *usecase.IndexerUseCase {
	return usecase.NewIndexerUC(f.catalog, f.downloader, f.normalizer, f.encoder, f.artifacts, f.indexCfg, searchindex.BackendFlat, logger.Nop())
}

func (f *fixture) search(cache usecase.SearchCacheRepository) *usecase.SearchUseCase {
	return usecase.NewSearchUC(f.artifacts, nil, f.encoder, f.normalizer, usecase.DefaultCategoryTable(), cache, f.searchCfg, searchindex.BackendFlat, logger.Nop())
}

// ready собирает индекс и возвращает загруженный сценарий поиска.
func (f *fixture) ready(t *testing.T, cache usecase.SearchCacheRepository) *usecase.SearchUseCase {
	t.Helper()

	_, err := f.indexer().Build(context.Background())
	require.NoError(t, err)

	uc := f.search(cache)
	_, err = uc.Reload(context.Background())
	require.NoError(t, err)
	return uc
}
