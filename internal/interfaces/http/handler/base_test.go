package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/shared"
	"github.com/tradelane/backend/internal/interfaces/http/dto"
)

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetOrgID(t *testing.T) {
	newContext := func(header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if header != "" {
			c.Request.Header.Set("X-Org-ID", header)
		}
		return c
	}

	t.Run("parses the header", func(t *testing.T) {
		id, err := getOrgID(newContext("c9b1f310-9e88-4a8c-ae1d-8c4d2f3f74d1"))
		require.NoError(t, err)
		assert.Equal(t, "c9b1f310-9e88-4a8c-ae1d-8c4d2f3f74d1", id.String())
	})

	t.Run("missing header is an error", func(t *testing.T) {
		_, err := getOrgID(newContext(""))
		assert.Error(t, err)
	})

	t.Run("malformed header is an error", func(t *testing.T) {
		_, err := getOrgID(newContext("not-a-uuid"))
		assert.Error(t, err)
	})
}

func TestBaseHandlerResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		h.Success(c, map[string]string{"key": "value"})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("SuccessWithMeta", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		h.SuccessWithMeta(c, []string{"a", "b"}, 100, 1, 10)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(100), resp.Meta.Total)
		assert.Equal(t, 10, resp.Meta.TotalPages)
	})

	t.Run("Created", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		h.Created(c, map[string]string{"id": "123"})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("NoContent", func(t *testing.T) {
		router := gin.New()
		router.DELETE("/test", func(c *gin.Context) {
			h.NoContent(c)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("DELETE", "/test", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "BadRequest",
			method: func(h *BaseHandler, c *gin.Context) {
				h.BadRequest(c, "Invalid request")
			},
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeBadRequest,
		},
		{
			name: "NotFound",
			method: func(h *BaseHandler, c *gin.Context) {
				h.NotFound(c, "Document not found")
			},
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
		},
		{
			name: "Unauthorized",
			method: func(h *BaseHandler, c *gin.Context) {
				h.Unauthorized(c, "Org ID is required")
			},
			expectedCode: http.StatusUnauthorized,
			expectedErr:  "ERR_UNAUTHORIZED",
		},
		{
			name: "InternalError",
			method: func(h *BaseHandler, c *gin.Context) {
				h.InternalError(c, "Server error")
			},
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			tt.method(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	newContext := func() (*httptest.ResponseRecorder, *gin.Context) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)
		return w, c
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w, c := newContext()
		h.HandleError(c, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})

	t.Run("domain errors map through the code table", func(t *testing.T) {
		tests := []struct {
			err          error
			expectedCode int
			expectedErr  string
		}{
			{shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
			{shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
			{shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
			{shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
			{shared.NewDomainError(shared.CodeDuplicateNumber, "taken"), http.StatusConflict, dto.ErrCodeDuplicateNumber},
			{shared.NewDomainError(shared.CodeNegativeMagnitude, "negative"), http.StatusBadRequest, dto.ErrCodeNegativeMagnitude},
			{shared.NewDomainError(shared.CodeGovernanceViolation, "violated"), http.StatusUnprocessableEntity, dto.ErrCodeGovernanceViolation},
			{shared.NewDomainError(shared.CodePartialItemReplacement, "torn write"), http.StatusInternalServerError, dto.ErrCodePartialItemReplacement},
		}

		for _, tt := range tests {
			w, c := newContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		}
	})

	t.Run("unmapped domain codes default to 400", func(t *testing.T) {
		w, c := newContext()
		h.HandleError(c, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_DOCUMENT_TYPE", resp.Error.Code)
	})

	t.Run("invalid transitions carry the from and to states", func(t *testing.T) {
		w, c := newContext()
		h.HandleError(c, &document.InvalidTransitionError{From: document.StatusDraft, To: document.StatusPaid})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInvalidTransition, resp.Error.Code)

		details, ok := resp.Error.Details.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "draft", details["from"])
		assert.Equal(t, "paid", details["to"])
	})

	t.Run("wrapped domain errors are unwrapped", func(t *testing.T) {
		w, c := newContext()
		h.HandleError(c, fmt.Errorf("loading document: %w", shared.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("standard errors are internal", func(t *testing.T) {
		w, c := newContext()
		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	})

	t.Run("request ID is echoed in the error", func(t *testing.T) {
		w, c := newContext()
		c.Set(RequestIDKey, "err-req-123")
		h.HandleError(c, shared.ErrNotFound)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "err-req-123", resp.Error.RequestID)
	})
}
