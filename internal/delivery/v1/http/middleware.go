package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/visual-search/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger пишет одну строку на запрос: id, метод, путь, статус, длительность.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Infof("request_id=%s %s %s status=%d bytes=%d duration=%s",
					middleware.GetReqID(r.Context()), r.Method, r.URL.Path,
					ww.Status(), ww.BytesWritten(), time.Since(start),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
