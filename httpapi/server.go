// Package httpapi exposes the search service over HTTP.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/search"
)

// API serves the search endpoints.
type API struct {
	service *search.Service
	logger  *slog.Logger
}

// Option configures the API.
type Option func(*API)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// New creates the API over a search service.
func New(service *search.Service, opts ...Option) *API {
	a := &API{
		service: service,
		logger:  slog.Default().With("component", "httpapi"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router builds the gin engine with all routes mounted. Request logging
// happens in the handlers, so only the recovery middleware is attached.
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/search", a.handleSearch)
	router.GET("/article/:id", a.handleArticle)
	router.GET("/categories", a.handleCategories)
	router.GET("/healthz", a.handleHealth)

	return router
}

// searchHit mirrors the public wire format: id and grupo are rendered
// as strings for backwards compatibility with existing clients.
type searchHit struct {
	ID        string  `json:"id"`
	Score     float32 `json:"score"`
	Pregunta  string  `json:"pregunta"`
	Respuesta string  `json:"respuesta"`
	Grupo     string  `json:"grupo"`
	Tema      string  `json:"tema"`
}

type articleBody struct {
	ID        string `json:"id"`
	Pregunta  string `json:"pregunta"`
	Respuesta string `json:"respuesta"`
	Grupo     string `json:"grupo"`
	Tema      string `json:"tema"`
}

func detail(message string) gin.H {
	return gin.H{"detail": message}
}

func (a *API) handleSearch(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, detail("query parameter is required"))
		return
	}

	opts := search.Options{}
	if category := c.Query("category"); category != "" {
		opts.Category = &category
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, detail("limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}
	if raw := c.Query("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, detail("threshold must be a number"))
			return
		}
		t := float32(threshold)
		opts.Threshold = &t
	}

	a.logger.Info("search request",
		"query_len", len(query),
		"category", c.Query("category"),
		"limit", opts.Limit)

	results, err := a.service.Search(c.Request.Context(), query, opts)
	if errors.Is(err, search.ErrInvalidCategory) {
		c.JSON(http.StatusBadRequest, detail("category must be numeric"))
		return
	}
	if err != nil {
		a.logger.Error("search failed", "err", err)
		c.JSON(http.StatusInternalServerError, detail("An error occurred during the search process"))
		return
	}

	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			ID:        strconv.FormatUint(uint64(r.ID), 10),
			Score:     r.Score,
			Pregunta:  r.Pregunta,
			Respuesta: r.Respuesta,
			Grupo:     strconv.Itoa(r.Grupo),
			Tema:      r.Tema,
		}
	}
	c.JSON(http.StatusOK, hits)
}

func (a *API) handleArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail("article id must be numeric"))
		return
	}

	a.logger.Info("article request", "id", id)

	article, err := a.service.Article(c.Request.Context(), core.ID(id))
	if err != nil {
		a.logger.Error("article lookup failed", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, detail("An error occurred while retrieving the article"))
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, detail("Article not found"))
		return
	}

	// Articles only change on re-ingestion, so a content hash makes a
	// reliable ETag.
	etag := `"` + strconv.FormatUint(uint64(core.IDFromContent(article.Pregunta+article.Respuesta)), 16) + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)

	c.JSON(http.StatusOK, articleBody{
		ID:        strconv.FormatUint(uint64(article.ID), 10),
		Pregunta:  article.Pregunta,
		Respuesta: article.Respuesta,
		Grupo:     strconv.Itoa(article.Grupo),
		Tema:      article.Tema,
	})
}

func (a *API) handleCategories(c *gin.Context) {
	categories, err := a.service.Categories(c.Request.Context())
	if err != nil {
		a.logger.Error("categories lookup failed", "err", err)
		c.JSON(http.StatusInternalServerError, detail("An error occurred while retrieving categories"))
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
