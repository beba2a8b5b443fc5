package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/famvest/portfolio_tracker_app/internal/apperrors"
	"github.com/famvest/portfolio_tracker_app/internal/core/domain"
	portssvc "github.com/famvest/portfolio_tracker_app/internal/core/ports/services"
	"github.com/famvest/portfolio_tracker_app/internal/dto"
	"github.com/famvest/portfolio_tracker_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// apiTokenHandler manages member API tokens.
type apiTokenHandler struct {
	tokenService portssvc.APITokenSvc
}

func newAPITokenHandler(ts portssvc.APITokenSvc) *apiTokenHandler {
	return &apiTokenHandler{tokenService: ts}
}

// registerAPITokenRoutes registers token management routes.
func registerAPITokenRoutes(rg *gin.RouterGroup, tokenService portssvc.APITokenSvc) {
	h := newAPITokenHandler(tokenService)

	tokens := rg.Group("/tokens")
	{
		tokens.POST("", h.createToken)
		tokens.GET("", middleware.RequireMember(), h.listTokens)
		tokens.DELETE("/:tokenID", middleware.RequireMember(), h.revokeToken)
	}
}

// createToken issues a new API token. Authenticated members issue their own
// tokens; an unauthenticated request must name a member in the body, which
// bootstraps the household's first token.
func (h *apiTokenHandler) createToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	memberID, authenticated := middleware.GetMemberIDFromContext(c)
	if !authenticated {
		if req.MemberID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "memberID is required when unauthenticated"})
			return
		}
		memberID = req.MemberID
	}

	token, plaintext, err := h.tokenService.CreateToken(c.Request.Context(), memberID, req.Name, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create API token", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		}
		return
	}

	logger.Info("API token issued",
		slog.String("token_id", token.ID),
		slog.String("member_id", memberID))
	c.JSON(http.StatusCreated, toAPITokenResponse(token, plaintext))
}

// listTokens retrieves the calling member's tokens.
func (h *apiTokenHandler) listTokens(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	memberID, _ := middleware.GetMemberIDFromContext(c)

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), memberID)
	if err != nil {
		logger.Error("Failed to list API tokens", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
		return
	}

	responses := make([]dto.APITokenResponse, len(tokens))
	for i, token := range tokens {
		responses[i] = toAPITokenResponse(&token, "")
	}
	c.JSON(http.StatusOK, responses)
}

// revokeToken deletes one of the calling member's tokens.
func (h *apiTokenHandler) revokeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	memberID, _ := middleware.GetMemberIDFromContext(c)
	tokenID := c.Param("tokenID")

	if err := h.tokenService.RevokeToken(c.Request.Context(), memberID, tokenID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		} else {
			logger.Error("Failed to revoke API token", slog.String("error", err.Error()), slog.String("token_id", tokenID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke token"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func toAPITokenResponse(token *domain.APIToken, plaintext string) dto.APITokenResponse {
	return dto.APITokenResponse{
		ID:         token.ID,
		Name:       token.Name,
		Token:      plaintext,
		LastUsedAt: token.LastUsedAt,
		ExpiresAt:  token.ExpiresAt,
		CreatedAt:  token.CreatedAt,
	}
}
