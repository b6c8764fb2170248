package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler exposes the synchronous balance mutations and the entry history.
type ledgerHandler struct {
	ledger portssvc.LedgerSvcFacade
}

// RegisterLedgerRoutes registers routes that move money or read ledger history.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledger portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledger: ledger}

	accounts := rg.Group("/accounts/:userID")
	{
		accounts.POST("/recharge", h.recharge)
		accounts.POST("/consume", h.consume)
		accounts.POST("/adjust", h.adjust)
		accounts.GET("/entries", h.listEntries)
	}
}

func (h *ledgerHandler) recharge(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	operatorUserID, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Recharge", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.apply(c, logger, domain.ApplyRequest{
		UserID:         userID,
		Amount:         req.Amount,
		BillType:       domain.Credit,
		BillingType:    domain.BillingTypeRecharge,
		BusinessType:   req.BusinessType,
		Description:    req.Description,
		Remark:         req.Remark,
		OperatorUserID: operatorUserID,
		EventID:        req.EventID,
	})
}

func (h *ledgerHandler) consume(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	operatorUserID, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req dto.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Consume", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	mode := domain.ApplyModeStrict
	if req.Capped {
		mode = domain.ApplyModeCapped
	}
	h.apply(c, logger, domain.ApplyRequest{
		UserID:         userID,
		Amount:         req.Amount,
		BillType:       domain.Debit,
		BillingType:    domain.BillingTypeConsumption,
		BusinessType:   req.BusinessType,
		Description:    req.Description,
		Remark:         req.Remark,
		OperatorUserID: operatorUserID,
		EventID:        req.EventID,
		Mode:           mode,
	})
}

// adjust records a manual correction. Debit adjustments are strict.
func (h *ledgerHandler) adjust(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	operatorUserID, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Adjust", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.apply(c, logger, domain.ApplyRequest{
		UserID:         userID,
		Amount:         req.Amount,
		BillType:       req.BillType,
		BillingType:    domain.BillingTypeAdjustment,
		Description:    req.Description,
		Remark:         req.Remark,
		OperatorUserID: operatorUserID,
	})
}

func (h *ledgerHandler) apply(c *gin.Context, logger *slog.Logger, req domain.ApplyRequest) {
	result, err := h.ledger.Apply(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to apply ledger entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToApplyResponse(result))
}

func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledger.ListEntries(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list ledger entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}
