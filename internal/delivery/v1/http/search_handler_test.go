package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/visual-search/internal/domain"
	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/e"
	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchUC struct {
	result    domain.SearchResult
	err       error
	gotImage  []byte
	health    *usecase.HealthRes
	stats     *usecase.StatsRes
	statsErr  error
	reloadRes *usecase.ReloadRes
	reloadErr error
}

func (f *fakeSearchUC) Search(_ context.Context, req *usecase.SearchReq) (domain.SearchResult, error) {
	f.gotImage = req.Image
	return f.result, f.err
}

func (f *fakeSearchUC) Reload(context.Context) (*usecase.ReloadRes, error) {
	return f.reloadRes, f.reloadErr
}

func (f *fakeSearchUC) Health(context.Context) *usecase.HealthRes { return f.health }

func (f *fakeSearchUC) Stats() (*usecase.StatsRes, error) { return f.stats, f.statsErr }

func newTestRouter(uc usecase.SearchUC, maxImageSize int64) http.Handler {
	mux := chi.NewRouter()
	NewRouter(mux, logger.Nop()).Init(uc, maxImageSize)
	return mux
}

func multipartRequest(t *testing.T, path, field string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "query.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSearchExactMatch(t *testing.T) {
	uc := &fakeSearchUC{result: &domain.ExactMatch{
		Product: domain.ImageMetadata{
			ProductName: "Rolex Datejust",
			ProductURL:  "https://shop.example/rolex",
			ImageURL:    "https://cdn.example/rolex.jpg",
			Price:       "1299",
		},
		Category:        domain.CategoryWatch,
		HammingDistance: 0,
	}}

	for _, path := range []string{"/search", "/api/v1/search"} {
		rec := httptest.NewRecorder()
		newTestRouter(uc, 1<<20).ServeHTTP(rec, multipartRequest(t, path, "file", []byte("jpeg")))

		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decodeBody(t, rec)
		assert.Equal(t, "exact_match", body["status"])
		assert.Equal(t, "perceptual_hash", body["method"])
		assert.Equal(t, "EXACT", body["confidence"])
		assert.Equal(t, 1.0, body["similarity_score"])
		assert.Equal(t, 0.0, body["hamming_distance"])
		assert.Equal(t, "https://cdn.example/rolex.jpg", body["matched_image_url"])
		assert.Equal(t, "watch", body["category"])
	}
	assert.Equal(t, []byte("jpeg"), uc.gotImage)
}

func TestSearchMatchFound(t *testing.T) {
	top := domain.RankedProduct{
		ProductName: "A", ProductURL: "https://shop.example/a", Price: "10",
		Category: domain.CategoryBag, ImageURL: "https://cdn.example/a1.jpg", CombinedScore: 0.895, Votes: 3,
	}
	uc := &fakeSearchUC{result: &domain.SimilarMatches{
		Top:              top,
		Confidence:       domain.ConfidenceHigh,
		DetectedCategory: domain.CategoryBag,
		Top5:             []domain.RankedProduct{top},
	}}

	rec := httptest.NewRecorder()
	newTestRouter(uc, 1<<20).ServeHTTP(rec, multipartRequest(t, "/search", "file", []byte("png")))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "match_found", body["status"])
	assert.Equal(t, "clip_similarity", body["method"])
	assert.Equal(t, "HIGH", body["confidence"])
	assert.Equal(t, "bag", body["detected_category"])
	assert.InDelta(t, 0.895, body["similarity_score"], 1e-9)
	require.Len(t, body["top_5_results"], 1)
	first := body["top_5_results"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://cdn.example/a1.jpg", first["image_url"])
	assert.NotContains(t, body, "hamming_distance")
}

func TestSearchNoMatch(t *testing.T) {
	uc := &fakeSearchUC{result: &domain.NoMatch{BestScore: 0.41}}

	rec := httptest.NewRecorder()
	newTestRouter(uc, 1<<20).ServeHTTP(rec, multipartRequest(t, "/search", "file", []byte("png")))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "no_match", body["status"])
	assert.NotEmpty(t, body["message"])
	assert.InDelta(t, 0.41, body["similarity_score"], 1e-9)
	assert.NotContains(t, body, "product_name")
}

func TestSearchErrors(t *testing.T) {
	cases := []struct {
		name string
		uc   *fakeSearchUC
		req  func(t *testing.T) *http.Request
		code int
	}{
		{
			name: "not multipart",
			uc:   &fakeSearchUC{},
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte("{}")))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			code: http.StatusBadRequest,
		},
		{
			name: "missing file field",
			uc:   &fakeSearchUC{},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "image", []byte("x")) },
			code: http.StatusBadRequest,
		},
		{
			name: "empty file",
			uc:   &fakeSearchUC{},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", nil) },
			code: http.StatusBadRequest,
		},
		{
			name: "too large",
			uc:   &fakeSearchUC{},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", make([]byte, 2048)) },
			code: http.StatusRequestEntityTooLarge,
		},
		{
			name: "undecodable",
			uc:   &fakeSearchUC{err: e.Wrap("decode", e.ErrUndecodableImage)},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", []byte("x")) },
			code: http.StatusBadRequest,
		},
		{
			name: "not an image",
			uc:   &fakeSearchUC{err: e.Wrap("normalize", e.ErrUnsupportedMediaType)},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", []byte("%PDF")) },
			code: http.StatusBadRequest,
		},
		{
			name: "not ready",
			uc:   &fakeSearchUC{err: e.Wrap("search", e.ErrServiceNotReady)},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", []byte("x")) },
			code: http.StatusServiceUnavailable,
		},
		{
			name: "encoder down",
			uc:   &fakeSearchUC{err: errors.Join(errors.New("dial"), e.ErrEncoderUnavailable)},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", []byte("x")) },
			code: http.StatusServiceUnavailable,
		},
		{
			name: "inconsistent index",
			uc:   &fakeSearchUC{err: e.Wrap("slot 9", e.ErrIndexInconsistent)},
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, "/search", "file", []byte("x")) },
			code: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(tc.uc, 1024).ServeHTTP(rec, tc.req(t))

			require.Equal(t, tc.code, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, float64(tc.code), body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestHealthAlwaysOK(t *testing.T) {
	uc := &fakeSearchUC{health: &usecase.HealthRes{ModelLoaded: true}}

	rec := httptest.NewRecorder()
	newTestRouter(uc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, false, body["index_loaded"])
	assert.Equal(t, true, body["model_loaded"])
}

func TestStats(t *testing.T) {
	built := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	uc := &fakeSearchUC{stats: &usecase.StatsRes{
		TotalVectors: 5, TotalImages: 5, HashIndexSize: 5, Generation: "g1", BuiltAt: built,
		Thresholds: usecase.Thresholds{ExactMatchHash: 5, NearExactHash: 10, High: 0.82, Medium: 0.72, Low: 0.62, CategoryFloor: 0.35},
	}}

	rec := httptest.NewRecorder()
	newTestRouter(uc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 5.0, body["total_vectors"])
	assert.Equal(t, "g1", body["generation"])
	thresholds := body["thresholds"].(map[string]any)
	assert.Equal(t, 0.82, thresholds["high"])
	assert.Equal(t, 5.0, thresholds["exact_match_hash"])

	notReady := &fakeSearchUC{statsErr: e.Wrap("stats", e.ErrServiceNotReady)}
	rec = httptest.NewRecorder()
	newTestRouter(notReady, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReload(t *testing.T) {
	uc := &fakeSearchUC{reloadRes: &usecase.ReloadRes{Generation: "g2", Images: 7, Changed: true}}

	rec := httptest.NewRecorder()
	newTestRouter(uc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/index/reload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "g2", body["generation"])
	assert.Equal(t, true, body["changed"])

	failing := &fakeSearchUC{reloadErr: e.Wrap("reload", e.ErrNoGeneration)}
	rec = httptest.NewRecorder()
	newTestRouter(failing, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/index/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecovererReturns500(t *testing.T) {
	rec := httptest.NewRecorder()
	// nil health вызывает панику в обработчике
	newTestRouter(&fakeSearchUC{}, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeSearchUC{}, 1024).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Visual Search API", doc.Info.Title)
	for _, path := range []string{"/search", "/api/v1/search", "/health", "/stats", "/api/v1/index/reload"} {
		assert.Contains(t, doc.Paths, path)
	}
}
