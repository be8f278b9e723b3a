package http

import (
	"net/http"

	"github.com/DRSN-tech/visual-search/internal/usecase"
	"github.com/DRSN-tech/visual-search/pkg/logger"
)

const (
	ServiceName = "visual-search"
	fileField   = "file"
)

// Version проставляется при сборке через -ldflags.
var Version = "dev"

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	maxImageSize  int64
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, maxImageSize int64, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, maxImageSize: maxImageSize, logger: logger}
}

// search
//
//	@Summary		Поиск товара по фотографии
//	@Description	Сначала ищет почти идентичный снимок по перцептивному хешу, затем похожие товары по эмбеддингам
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file			true	"Фотография товара"
//	@Success		200		{object}	SearchResponse	"exact_match | match_found | no_match"
//	@Failure		400		{object}	ErrorResponse	"Файл не передан, не является изображением или не декодируется"
//	@Failure		413		{object}	ErrorResponse	"Файл слишком большой"
//	@Failure		503		{object}	ErrorResponse	"Индекс не загружен или энкодер недоступен"
//	@Router			/search [post]
func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	const (
		formOverhead = 1 << 20
		maxMemory    = 32 << 20
	)

	if h.maxImageSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+formOverhead)
	}

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("search rejected: %v (Content-Type: %s)", err, r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	fh, err := formFile(r, fileField)
	if err != nil {
		h.logger.Warnf("search rejected: %v", err)
		WriteError(w, err)
		return
	}

	data, err := readFile(fh, h.maxImageSize)
	if err != nil {
		h.logger.Warnf("search rejected: %v", err)
		WriteError(w, err)
		return
	}

	result, err := h.searchUsecase.Search(r.Context(), usecase.NewSearchReq(data, fh.Filename))
	if err != nil {
		h.logger.Errorf(err, "search %s failed", fh.Filename)
		WriteError(w, err)
		return
	}

	h.logger.Infof("search %s (%d bytes): %s", fh.Filename, len(data), result.Status())
	WriteSuccess(w, http.StatusOK, toSearchResponse(result))
}

// health всегда отвечает 200, готовность видна по полям ответа.
//
//	@Summary	Состояние сервиса
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *SearchHandler) health(w http.ResponseWriter, r *http.Request) {
	res := h.searchUsecase.Health(r.Context())
	WriteSuccess(w, http.StatusOK, toHealthResponse(res, ServiceName, Version))
}

// stats
//
//	@Summary	Статистика загруженного поколения индекса
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	StatsResponse
//	@Failure	503	{object}	ErrorResponse	"Индекс не загружен"
//	@Router		/stats [get]
func (h *SearchHandler) stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.searchUsecase.Stats()
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, toStatsResponse(res))
}

// reload
//
//	@Summary	Загрузить текущее поколение индекса
//	@Tags		index
//	@Produce	json
//	@Success	200	{object}	ReloadResponse
//	@Failure	500	{object}	ErrorResponse	"Поколение повреждено"
//	@Failure	503	{object}	ErrorResponse	"Опубликованного поколения нет"
//	@Router		/api/v1/index/reload [post]
func (h *SearchHandler) reload(w http.ResponseWriter, r *http.Request) {
	res, err := h.searchUsecase.Reload(r.Context())
	if err != nil {
		h.logger.Errorf(err, "manual reload failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &ReloadResponse{
		Generation: res.Generation,
		Images:     res.Images,
		Changed:    res.Changed,
	})
}
