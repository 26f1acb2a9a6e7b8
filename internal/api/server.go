// Package api exposes the read-only reporting endpoints over the scraped
// products table.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/partscope/partscope/internal/storage"
	"github.com/sirupsen/logrus"
)

// Server holds the reporting API handlers
type Server struct {
	store *storage.Storage
	log   *logrus.Logger
}

// NewRouter builds the gin engine with all reporting routes registered
func NewRouter(store *storage.Storage, log *logrus.Logger) *gin.Engine {
	s := &Server{store: store, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/products", s.listProducts)
		api.GET("/products/:sku", s.getProduct)
		api.GET("/stats", s.stats)
	}

	return r
}

// health reports database connectivity. Connectivity errors degrade to an
// explicit unhealthy payload rather than a raw failure.
func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		s.log.Errorf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// listProducts returns products filtered by category and stock status,
// capped at 1000 rows
func (s *Server) listProducts(c *gin.Context) {
	filter := storage.ProductFilter{
		Category: c.Query("category"),
	}

	if v := c.Query("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid in_stock value"})
			return
		}
		filter.InStock = &inStock
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit value"})
			return
		}
		filter.Limit = limit
	}

	products, err := s.store.ListProducts(filter)
	if err != nil {
		s.log.Errorf("ListProducts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	if products == nil {
		products = []storage.Product{}
	}

	c.JSON(http.StatusOK, products)
}

// getProduct returns a single product by SKU, 404 when absent
func (s *Server) getProduct(c *gin.Context) {
	product, err := s.store.GetProduct(c.Param("sku"))
	if err != nil {
		s.log.Errorf("GetProduct failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// stats returns aggregate counts over the products table
func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.GetStats()
	if err != nil {
		s.log.Errorf("Stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// corsMiddleware allows cross-origin reads from the dashboard frontend
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
