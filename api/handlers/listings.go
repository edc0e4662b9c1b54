package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realty/api/middleware"
	"realty/models"
	"realty/services"
)

const serviceName = "catalog"

type ListingHandler struct {
	Catalog *services.Catalog
}

func (h *ListingHandler) Insert(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)

	var listing models.Property
	if err := c.ShouldBindJSON(&listing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	start := time.Now()
	receipt, err := h.Catalog.Insert(c.Request.Context(), listing, username)
	middleware.RecordCatalogOperation("insert", statusLabel(err), serviceName, time.Since(start), errorType(err))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *ListingHandler) Search(c *gin.Context) {
	query := services.SearchQuery{
		CustomID:    c.Query("custom_id"),
		City:        c.Query("city"),
		State:       c.Query("state"),
		Type:        c.Query("type"),
		Address:     c.Query("address"),
		SortByPrice: c.Query("sort"),
	}
	if query.SortByPrice != "" && query.SortByPrice != services.SortAsc && query.SortByPrice != services.SortDesc {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be 'asc' or 'desc'"})
		return
	}

	start := time.Now()
	results, err := h.Catalog.Search(c.Request.Context(), query)
	middleware.RecordCatalogOperation("search", statusLabel(err), serviceName, time.Since(start), errorType(err))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if results == nil {
		results = []models.Property{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

type UpdateRequest struct {
	Updates map[string]interface{} `json:"updates" binding:"required"`
}

func (h *ListingHandler) Update(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)
	customID := c.Param("custom_id")

	var updateRequest UpdateRequest
	if err := c.ShouldBindJSON(&updateRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if len(updateRequest.Updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updates provided"})
		return
	}

	start := time.Now()
	err := h.Catalog.Update(c.Request.Context(), customID, updateRequest.Updates, username)
	middleware.RecordCatalogOperation("update", statusLabel(err), serviceName, time.Since(start), errorType(err))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "custom_id": customID})
}

func (h *ListingHandler) Delete(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)
	customID := c.Param("custom_id")

	start := time.Now()
	err := h.Catalog.Delete(c.Request.Context(), customID, username)
	middleware.RecordCatalogOperation("delete", statusLabel(err), serviceName, time.Since(start), errorType(err))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "custom_id": customID})
}

// Export runs a search and streams the results as a CSV or JSON attachment.
func (h *ListingHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be 'csv' or 'json'"})
		return
	}

	query := services.SearchQuery{
		CustomID:    c.Query("custom_id"),
		City:        c.Query("city"),
		State:       c.Query("state"),
		Type:        c.Query("type"),
		Address:     c.Query("address"),
		SortByPrice: c.Query("sort"),
	}
	results, err := h.Catalog.Search(c.Request.Context(), query)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	filename := fmt.Sprintf("search_results_%s.%s", time.Now().Format("2006-01-02_15-04-05"), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if format == "csv" {
		c.Header("Content-Type", "text/csv")
		if err := services.ExportCSV(c.Writer, results); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		}
		return
	}
	c.Header("Content-Type", "application/json")
	if err := services.ExportJSON(c.Writer, results); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
	}
}

// respondCatalogError maps the catalog error taxonomy to HTTP statuses.
func respondCatalogError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var duplicateErr *services.DuplicateError
	var authErr *services.AuthorizationError
	var conversionErr *services.ConversionError
	var storageErr *services.StorageError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": validationErr.Fields})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "custom_id": duplicateErr.CustomID})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this listing"})
	case errors.As(err, &conversionErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func errorType(err error) string {
	if err == nil {
		return ""
	}
	var validationErr *services.ValidationError
	var duplicateErr *services.DuplicateError
	var authErr *services.AuthorizationError
	var conversionErr *services.ConversionError
	var storageErr *services.StorageError
	switch {
	case errors.As(err, &validationErr):
		return "ValidationError"
	case errors.As(err, &duplicateErr):
		return "DuplicateError"
	case errors.As(err, &authErr):
		return "AuthorizationError"
	case errors.As(err, &conversionErr):
		return "ConversionError"
	case errors.As(err, &storageErr):
		return "StorageError"
	}
	return "unknown"
}
