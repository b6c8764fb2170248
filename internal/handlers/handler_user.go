package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/billing_ledger/internal/core/ports/services"
	"github.com/SscSPs/billing_ledger/internal/dto"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler maintains the identity profiles the resolver reads.
type userHandler struct {
	users portssvc.UserSvc
}

// RegisterUserRoutes registers the identity profile sync routes.
func RegisterUserRoutes(rg *gin.RouterGroup, users portssvc.UserSvc) {
	h := &userHandler{users: users}

	rg.GET("/users/:userID", h.getUser)
	rg.PUT("/users/:userID", h.syncUser)
}

func (h *userHandler) getUser(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *userHandler) syncUser(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	var req dto.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SyncUser", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.users.SyncUser(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to sync user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
