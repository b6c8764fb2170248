package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to billing accounts.
type accountHandler struct {
	resolver       portssvc.AccountResolverSvc
	guard          portssvc.BalanceGuardSvc
	lifecycle      portssvc.LifecycleHookSvc
	ledger         portssvc.LedgerSvcFacade
	reconciliation portssvc.ReconciliationSvc
}

// RegisterAccountRoutes registers routes related to billing accounts.
func RegisterAccountRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &accountHandler{
		resolver:       services.Resolver,
		guard:          services.Guard,
		lifecycle:      services.Lifecycle,
		ledger:         services.Ledger,
		reconciliation: services.Reconciliation,
	}

	rg.POST("/guard", h.ensureSufficient)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.provisionAccount)
		accounts.GET("/:userID", h.getAccount)
		accounts.GET("/:userID/charge-account", h.resolveChargeAccount)
		accounts.PUT("/:userID/status", h.updateStatus)
		accounts.GET("/:userID/reconciliation", h.reconcile)
	}
}

// resolveChargeAccount returns which account pays for requests made by :userID.
func (h *accountHandler) resolveChargeAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	chargeAccount, err := h.resolver.Resolve(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve charge account")
		return
	}
	c.JSON(http.StatusOK, dto.ToChargeAccountResponse(chargeAccount))
}

// ensureSufficient is the balance pre-check run before expensive work. It never mutates.
func (h *accountHandler) ensureSufficient(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.EnsureSufficientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EnsureSufficient", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	chargeAccount, err := h.guard.EnsureSufficient(c.Request.Context(), req.UserID, req.MinimumAmount, req.Scene)
	if err != nil {
		respondError(c, logger, err, "Failed to check balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToChargeAccountResponse(chargeAccount))
}

func (h *accountHandler) provisionAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.ProvisionAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ProvisionAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.lifecycle.OnAccountCreated(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, logger, err, "Failed to provision billing account")
		return
	}

	logger.Info("Billing account provisioned", slog.Int64("user_id", req.UserID), slog.Bool("granted", result.GrantEntry != nil))
	c.JSON(http.StatusCreated, dto.ToProvisionAccountResponse(result))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	account, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve billing account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) updateStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	operatorUserID, ok := operatorFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAccountStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.ledger.UpdateStatus(c.Request.Context(), userID, req.Status, operatorUserID)
	if err != nil {
		respondError(c, logger, err, "Failed to update billing account status")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	report, err := h.reconciliation.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile billing account")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(report))
}
