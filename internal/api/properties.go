package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/leasehub/internal/apperror"
	"github.com/ammar1510/leasehub/internal/database"
	"github.com/ammar1510/leasehub/internal/models"
)

// PropertyHandler serves the listings conversations are attached to
type PropertyHandler struct {
	DB database.Store
}

func NewPropertyHandler(db database.Store) *PropertyHandler {
	return &PropertyHandler{DB: db}
}

// CreateProperty lists a new property owned by the caller
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req models.PropertyRequest
	if !bindJSON(c, &req) {
		return
	}

	caller := currentIdentity(c)
	property, err := h.DB.CreateProperty(c.Request.Context(), &models.Property{
		OwnerID: caller.ID,
		Name:    strings.TrimSpace(req.Name),
		Price:   req.Price,
		City:    strings.TrimSpace(req.City),
	})
	switch {
	case errors.Is(err, database.ErrForeignKey):
		respondError(c, apperror.InvalidReference("Owner does not exist", err))
		return
	case errors.Is(err, database.ErrConstraint):
		respondError(c, apperror.Validation("Property failed validation", err))
		return
	case err != nil:
		respondError(c, apperror.Internal("Failed to create property", err))
		return
	}

	log.Info("User %d listed property %d", caller.ID, property.ID)
	c.JSON(http.StatusCreated, property)
}

// GetProperty returns a single listing
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperror.InvalidInput("Invalid property ID", err))
		return
	}

	property, err := h.DB.GetPropertyByID(c.Request.Context(), id)
	if errors.Is(err, database.ErrPropertyNotFound) {
		respondError(c, apperror.NotFound("Property", err))
		return
	}
	if err != nil {
		respondError(c, apperror.Internal("Failed to retrieve property", err))
		return
	}

	c.JSON(http.StatusOK, property)
}

// ListProperties returns every listing, newest first
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	properties, err := h.DB.ListProperties(c.Request.Context())
	if err != nil {
		respondError(c, apperror.Internal("Failed to retrieve properties", err))
		return
	}

	c.JSON(http.StatusOK, properties)
}
