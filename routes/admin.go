package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"onboarding-copilot/internal/corpus"
	"onboarding-copilot/internal/logger"
	"onboarding-copilot/middleware"
	"onboarding-copilot/models"
	"onboarding-copilot/services"
	"onboarding-copilot/utils"
)

// AdminDeps bundles the admin API's dependencies.
type AdminDeps struct {
	Cache     *services.SemanticCache
	Corpus    *corpus.Store
	Messages  *corpus.MessageStore
	Embedder  *EmbeddingStats
	AuditColl *mongo.Collection
	JWTSecret string
}

// EmbeddingStats adapts the embedding cache counters for the admin API.
type EmbeddingStats struct {
	StatsFn func() (hits, misses int64, size int)
}

// SetupAdminRoutes registers JWT-protected operational endpoints.
func SetupAdminRoutes(router *gin.Engine, deps AdminDeps) {
	admin := router.Group("/admin", middleware.RequireAdmin(deps.JWTSecret))

	admin.GET("/cache/stats", func(c *gin.Context) {
		resp := gin.H{"semantic_cache": deps.Cache.Stats()}
		if deps.Embedder != nil && deps.Embedder.StatsFn != nil {
			hits, misses, size := deps.Embedder.StatsFn()
			resp["embedding_cache"] = gin.H{"hits": hits, "misses": misses, "entries": size}
		}
		c.JSON(http.StatusOK, resp)
	})

	admin.POST("/cache/invalidate", func(c *gin.Context) {
		var req struct {
			Department string `json:"department" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request payload", err.Error())
			return
		}

		valid := false
		for _, dept := range models.Departments {
			if dept == req.Department {
				valid = true
				break
			}
		}
		if !valid {
			utils.RespondWithBadRequest(c, fmt.Sprintf("Unknown department %q", req.Department), gin.H{"valid": models.Departments})
			return
		}

		removed := deps.Cache.Invalidate(c.Request.Context(), req.Department)
		c.JSON(http.StatusOK, gin.H{"department": req.Department, "removed": removed})
	})

	admin.GET("/corpus/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Corpus.Stats())
	})

	admin.GET("/users/:user_id/messages", func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "user_id must be an integer", nil)
			return
		}
		messages, err := deps.Messages.RecentMessages(c.Request.Context(), userID, 50)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to query messages", nil)
			return
		}
		if messages == nil {
			messages = []models.Message{}
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "messages": messages})
	})

	admin.GET("/audit/export", handleAuditExport(deps))
}

// handleAuditExport streams the most recent audit events as an xlsx
// workbook. The since query parameter (RFC 3339) bounds the export.
func handleAuditExport(deps AdminDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := bson.M{}
		if since := c.Query("since"); since != "" {
			ts, err := time.Parse(time.RFC3339, since)
			if err != nil {
				utils.RespondWithBadRequest(c, "Invalid since parameter, expected RFC 3339", err.Error())
				return
			}
			filter["created_at"] = bson.M{"$gte": ts}
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(10000)
		cursor, err := deps.AuditColl.Find(c.Request.Context(), filter, opts)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to query audit events", nil)
			return
		}
		defer cursor.Close(c.Request.Context())

		var events []models.AuditEvent
		if err := cursor.All(c.Request.Context(), &events); err != nil {
			utils.RespondWithInternalError(c, "Failed to decode audit events", nil)
			return
		}

		f := excelize.NewFile()
		defer f.Close()

		const sheet = "Audit"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Created At", "Type", "Request ID", "User ID", "Method", "Path", "Status", "Query", "Department", "Duration (ms)", "Success"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, ev := range events {
			department := ""
			if ev.Routing != nil {
				department = ev.Routing.FinalDepartment
			}
			values := []interface{}{
				ev.CreatedAt.Format(time.RFC3339),
				ev.EventType,
				ev.RequestID,
				ev.UserID,
				ev.Method,
				ev.Path,
				ev.StatusCode,
				ev.Query,
				department,
				ev.DurationMS,
				ev.Success,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		filename := fmt.Sprintf("audit-export-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

		if err := f.Write(c.Writer); err != nil {
			logger.Error("Failed to stream audit export", "error", err)
		}
	}
}
