package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/catalog-agent/internal/delivery/http/handler"
	"github.com/user/catalog-agent/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)
	mux.HandleFunc("POST /api/crawl", h.HandleSubmitDiscovery)
	mux.HandleFunc("POST /api/products/extract", h.HandleSubmitExtract)
	mux.HandleFunc("GET /api/products/status", h.HandleGetExtractStatus)
	mux.HandleFunc("POST /api/sync", h.HandleSync)
	mux.HandleFunc("POST /api/collections/{id}/export", h.HandleExportCollection)
	mux.HandleFunc("GET /api/collections/{id}/export.csv", h.HandleDownloadCollectionCSV)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middlewares
	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
