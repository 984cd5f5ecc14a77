package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdocument "github.com/tradelane/backend/internal/application/document"
	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memDocumentRepo is a minimal in-memory document.Repository for handler
// tests
type memDocumentRepo struct {
	docs map[uuid.UUID]*document.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: make(map[uuid.UUID]*document.Document)}
}

func (r *memDocumentRepo) FindByID(_ context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID || doc.ArchivedAt != nil {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (r *memDocumentRepo) FindByNumber(_ context.Context, orgID uuid.UUID, docType document.Type, number string) (*document.Document, error) {
	for _, doc := range r.docs {
		if doc.OrgID == orgID && doc.Type == docType && doc.Number == number && doc.ArchivedAt == nil {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memDocumentRepo) FindAll(_ context.Context, orgID uuid.UUID, _ document.ListFilter) ([]document.Document, int64, error) {
	var out []document.Document
	for _, doc := range r.docs {
		if doc.OrgID == orgID && doc.ArchivedAt == nil {
			out = append(out, *doc)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memDocumentRepo) Save(_ context.Context, doc *document.Document) error {
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memDocumentRepo) Archive(_ context.Context, orgID, id uuid.UUID) error {
	doc, ok := r.docs[id]
	if !ok || doc.OrgID != orgID || doc.ArchivedAt != nil {
		return shared.ErrNotFound
	}
	now := time.Now()
	doc.ArchivedAt = &now
	return nil
}

func (r *memDocumentRepo) ExistsByNumber(_ context.Context, orgID uuid.UUID, docType document.Type, number string, excludeID uuid.UUID) (bool, error) {
	for _, doc := range r.docs {
		if doc.OrgID == orgID && doc.Type == docType && doc.Number == number && doc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func newDocumentRouter(repo *memDocumentRepo) *gin.Engine {
	h := NewDocumentHandler(appdocument.NewService(repo, nil))
	router := gin.New()
	docs := router.Group("/api/v1/documents")
	{
		docs.POST("", h.Create)
		docs.GET("/:id", h.Get)
		docs.GET("", h.List)
		docs.PUT("/:id", h.Update)
		docs.POST("/:id/transition", h.Transition)
		docs.DELETE("/:id", h.Archive)
	}
	return router
}

const createBody = `{
	"type": "tax_invoice",
	"counterparty": {"name": "Meridian Exports Pvt Ltd"},
	"items": [
		{"description": "Steel coils", "quantity": "2", "unit_price": "100", "tax_rate": "18"}
	]
}`

func doRequest(router *gin.Engine, method, path, orgID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if orgID != "" {
		req.Header.Set("X-Org-ID", orgID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createDocument(t *testing.T, router *gin.Engine, orgID string) string {
	t.Helper()
	w := doRequest(router, "POST", "/api/v1/documents", orgID, createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestDocumentHandlerCreate(t *testing.T) {
	orgID := uuid.New().String()

	t.Run("creates a draft", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		w := doRequest(router, "POST", "/api/v1/documents", orgID, createBody)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := w.Body.String()
		assert.Contains(t, body, `"success":true`)
		assert.Contains(t, body, `"INV-`)
		assert.Contains(t, body, `"status":"draft"`)
	})

	t.Run("requires the org header", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		w := doRequest(router, "POST", "/api/v1/documents", "", createBody)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		w := doRequest(router, "POST", "/api/v1/documents", orgID, `{"type":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate numbers conflict", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		body := `{"type":"tax_invoice","number":"INV-000042","counterparty":{"name":"Meridian"}}`

		w := doRequest(router, "POST", "/api/v1/documents", orgID, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = doRequest(router, "POST", "/api/v1/documents", orgID, body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_DUPLICATE_DOCUMENT_NUMBER")
	})

	t.Run("out of range tax rate is a validation failure", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		body := `{
			"type": "tax_invoice",
			"counterparty": {"name": "Meridian"},
			"items": [{"description": "x", "quantity": "1", "unit_price": "1", "tax_rate": "150"}]
		}`
		w := doRequest(router, "POST", "/api/v1/documents", orgID, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION_TAX_RATE_RANGE")
	})
}

func TestDocumentHandlerGet(t *testing.T) {
	orgID := uuid.New().String()
	router := newDocumentRouter(newMemDocumentRepo())
	id := createDocument(t, router, orgID)

	t.Run("returns the document", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/documents/"+id, orgID, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), id)
	})

	t.Run("unknown ID is 404", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/documents/"+uuid.New().String(), orgID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("malformed ID is 400", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/documents/not-a-uuid", orgID, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("another org cannot see it", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/documents/"+id, uuid.New().String(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentHandlerTransition(t *testing.T) {
	orgID := uuid.New().String()

	t.Run("walks the lifecycle", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		id := createDocument(t, router, orgID)

		w := doRequest(router, "POST", "/api/v1/documents/"+id+"/transition", orgID, `{"status":"sent"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"sent"`)
	})

	t.Run("invalid transition is 422 with the from and to states", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		id := createDocument(t, router, orgID)

		w := doRequest(router, "POST", "/api/v1/documents/"+id+"/transition", orgID, `{"status":"paid"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "ERR_INVALID_TRANSITION")
		assert.Contains(t, body, `"from":"draft"`)
		assert.Contains(t, body, `"to":"paid"`)
	})
}

func TestDocumentHandlerArchive(t *testing.T) {
	orgID := uuid.New().String()

	t.Run("archives a settled document", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		id := createDocument(t, router, orgID)
		w := doRequest(router, "POST", "/api/v1/documents/"+id+"/transition", orgID, `{"status":"cancelled"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, "DELETE", "/api/v1/documents/"+id, orgID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(router, "GET", "/api/v1/documents/"+id, orgID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("drafts cannot be archived", func(t *testing.T) {
		router := newDocumentRouter(newMemDocumentRepo())
		id := createDocument(t, router, orgID)

		w := doRequest(router, "DELETE", "/api/v1/documents/"+id, orgID, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
	})
}

func TestDocumentHandlerList(t *testing.T) {
	orgID := uuid.New().String()
	router := newDocumentRouter(newMemDocumentRepo())
	createDocument(t, router, orgID)

	w := doRequest(router, "GET", "/api/v1/documents", orgID, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"total":1`)
	assert.Contains(t, body, `"meta"`)
}
