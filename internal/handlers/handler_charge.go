package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// chargeHandler lets features report usage over HTTP and exposes manual compensation.
type chargeHandler struct {
	resolver    portssvc.AccountResolverSvc
	publisher   portssvc.ChargePublisherSvc
	deadLetters portssvc.DeadLetterSvcFacade
}

// RegisterChargeRoutes registers the charge producer and dead-letter routes.
func RegisterChargeRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := &chargeHandler{
		resolver:    services.Resolver,
		publisher:   services.Publisher,
		deadLetters: services.DeadLetter,
	}

	rg.POST("/charges", h.publishCharge)

	deadLetters := rg.Group("/dead-letters")
	{
		deadLetters.GET("", h.listDeadLetters)
		deadLetters.POST("/:id/replay", h.replayDeadLetter)
	}
}

// publishCharge resolves the paying account and emits a charge event. 202 means the
// event was handed to the broker; the debit happens asynchronously.
func (h *chargeHandler) publishCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.PublishChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PublishCharge", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	chargeAccount, err := h.resolver.Resolve(c.Request.Context(), req.RequestUserID)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve charge account")
		return
	}

	event := domain.ChargeEvent{
		EventID:        req.EventID,
		RequestUserID:  req.RequestUserID,
		ChargeUserID:   chargeAccount.ChargeUserID,
		OperatorUserID: chargeAccount.OperatorUserID,
		Amount:         req.Amount,
		TotalTokens:    req.TotalTokens,
		PricingMode:    req.PricingMode,
		BusinessType:   req.BusinessType,
		Description:    req.Description,
		Remark:         req.Remark,
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if req.OccurredAt != nil {
		event.OccurredAt = req.OccurredAt.UTC()
	} else {
		event.OccurredAt = time.Now().UTC()
	}

	published, err := h.publisher.Publish(c.Request.Context(), event)
	if err != nil {
		respondError(c, logger, err, "Failed to publish charge event")
		return
	}

	status := http.StatusAccepted
	if !published {
		status = http.StatusOK
	}
	c.JSON(status, dto.PublishChargeResponse{EventID: event.EventID, Published: published})
}

func (h *chargeHandler) listDeadLetters(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var params dto.ListDeadLettersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListDeadLetters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.deadLetters.ListDeadLetters(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list dead letters")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *chargeHandler) replayDeadLetter(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	deadLetter, err := h.deadLetters.Replay(c.Request.Context(), id)
	if err != nil {
		respondError(c, logger, err, "Failed to replay dead letter")
		return
	}
	c.JSON(http.StatusAccepted, dto.ToDeadLetterResponse(deadLetter))
}
