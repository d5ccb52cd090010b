package http

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"policy-rag/internal/handlers"
	"policy-rag/internal/rag"
	"policy-rag/internal/vectorstore"
)

//go:embed web/index.html
var defaultIndexHTML string

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RAGEngine      rag.Engine
	Index          rag.IndexCounter
	Indexer        handlers.Indexer // optional; index routes are omitted when nil
	VectorStore    vectorstore.VectorStore
	CollectionName string
	EmbeddingModel string
	IndexHTML      string // chat page served at "/"; the embedded page when empty
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Index))

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.RAGEngine))
			r.Method(http.MethodGet, "/chunks", handlers.NewChunksHandler(deps.VectorStore, deps.CollectionName))

			if deps.Indexer != nil {
				indexHandler := handlers.NewIndexHandler(deps.Indexer, deps.EmbeddingModel)
				r.Method(http.MethodPost, "/index", indexHandler)
				r.Get("/index/stats", indexHandler.Stats)
			}
		})
	})

	page := deps.IndexHTML
	if page == "" {
		page = defaultIndexHTML
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	})

	return r
}
