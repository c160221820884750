package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"onboarding-copilot/internal/ai"
	"onboarding-copilot/internal/corpus"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/internal/queue"
	"onboarding-copilot/middleware"
	"onboarding-copilot/models"
	"onboarding-copilot/services"
	"onboarding-copilot/utils"
)

// ChatDeps bundles everything the chat handler needs.
type ChatDeps struct {
	Pipeline       *services.Pipeline
	Messages       *corpus.MessageStore
	Enqueuer       *queue.Enqueuer
	RequestTimeout time.Duration
}

// SetupChatRoutes registers the chat endpoint.
func SetupChatRoutes(router *gin.Engine, deps ChatDeps) {
	router.POST("/chat", handleChat(deps))
}

func handleChat(deps ChatDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request payload", err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.RequestTimeout)
		defer cancel()

		result, err := deps.Pipeline.Process(ctx, req.Message, req.Language)
		if err != nil {
			respondPipelineError(c, err)
			auditChat(deps, c, &req, nil, start, false)
			return
		}

		messageID, idErr := deps.Messages.NextMessageID(ctx)
		if idErr != nil {
			logger.Error("Failed to allocate message id", "error", idErr)
		}

		resp := models.ChatResponse{
			Response:  result.Response,
			MessageID: messageID,
			Routing:   result.Routing,
			Sources:   result.Sources,
			Advisory:  result.Advisory,
			Followups: result.Followups,
		}
		if resp.Sources == nil {
			resp.Sources = []models.SourceRef{}
		}

		if idErr == nil {
			if err := deps.Messages.SaveMessage(ctx, &models.Message{
				MessageID: messageID,
				UserID:    req.UserID,
				Query:     req.Message,
				Response:  result.Response,
				Language:  req.Language,
				Routing:   result.Routing,
				Sources:   result.Sources,
				LatencyMS: float64(time.Since(start).Microseconds()) / 1000.0,
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				logger.Error("Failed to persist message", "error", err, "message_id", messageID)
			}
		}

		auditChat(deps, c, &req, result, start, true)
		c.JSON(http.StatusOK, resp)
	}
}

// respondPipelineError maps pipeline errors onto the API error
// taxonomy. Upstream outages are 5xx with a stable error_code so
// clients can distinguish retry-worthy failures.
func respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrEmbeddingUnavailable):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "EmbeddingUnavailable",
			"The embedding service is temporarily unavailable, please retry shortly", nil)
	case errors.Is(err, ai.ErrGenerationFailed):
		utils.RespondWithError(c, http.StatusBadGateway, "GenerationFailed",
			"The answer service is temporarily unavailable, please retry shortly", nil)
	case errors.Is(err, corpus.ErrCorpusUnavailable):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "CorpusUnavailable",
			"The policy corpus is unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(c, http.StatusGatewayTimeout, "Timeout",
			"The request took too long to process", nil)
	default:
		logger.Error("Unexpected pipeline error", "error", err)
		utils.RespondWithInternalError(c, "Something went wrong while answering your question", nil)
	}
}

func auditChat(deps ChatDeps, c *gin.Context, req *models.ChatRequest, result *services.PipelineResult, start time.Time, success bool) {
	event := models.AuditEvent{
		EventType:  "chat",
		RequestID:  middleware.GetRequestID(c),
		UserID:     req.UserID,
		Query:      req.Message,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		ClientIP:   c.ClientIP(),
		Success:    success,
		CreatedAt:  time.Now().UTC(),
	}
	if result != nil {
		event.Response = result.Response
		routing := result.Routing
		event.Routing = &routing
	}
	deps.Enqueuer.EnqueueAudit(event)
}
