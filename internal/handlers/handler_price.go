package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type priceHandler struct {
	prices portssvc.PriceSvcFacade
}

// RegisterPriceRoutes registers routes for the price table.
func RegisterPriceRoutes(rg *gin.RouterGroup, prices portssvc.PriceSvcFacade) {
	h := &priceHandler{prices: prices}

	rg.GET("/prices/:businessType", h.getPrice)
	rg.PUT("/prices/:businessType", h.setPrice)
}

func (h *priceHandler) getPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	price, err := h.prices.GetPrice(c.Request.Context(), c.Param("businessType"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve price")
		return
	}
	c.JSON(http.StatusOK, dto.ToPriceResponse(price))
}

func (h *priceHandler) setPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SetPrice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	price, err := h.prices.SetPrice(c.Request.Context(), c.Param("businessType"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to save price")
		return
	}
	c.JSON(http.StatusOK, dto.ToPriceResponse(price))
}
