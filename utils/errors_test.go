package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHelpersUsePascalCaseCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		respond func(c *gin.Context)
		status  int
		code    string
	}{
		{"bad request", func(c *gin.Context) { RespondWithBadRequest(c, "invalid body", nil) }, http.StatusBadRequest, CodeBadRequest},
		{"unauthorized", func(c *gin.Context) { RespondWithUnauthorized(c, "missing token") }, http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", func(c *gin.Context) { RespondWithForbidden(c, "admin only") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(c *gin.Context) { RespondWithNotFound(c, "route not found") }, http.StatusNotFound, CodeNotFound},
		{"internal", func(c *gin.Context) { RespondWithInternalError(c, "boom", nil) }, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tc.respond(c)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w).ErrorCode)
		})
	}
}

func TestErrorResponseOmitsEmptyDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithBadRequest(c, "invalid body", nil)

	assert.NotContains(t, w.Body.String(), "details")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondWithBadRequest(c, "invalid body", map[string]string{"field": "message"})

	assert.Contains(t, w.Body.String(), `"details"`)
}
