package note

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"note-sharing-service/internal/domain"
	apiError "note-sharing-service/internal/errors"
	"note-sharing-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateNote(ctx context.Context, ownerID string) (*domain.Note, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockService) GetNote(ctx context.Context, requesterID, ownerID string, noteID uint64) (*domain.Note, error) {
	args := m.Called(ctx, requesterID, ownerID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockService) EditNote(ctx context.Context, requesterID, ownerID string, noteID uint64, title, content string) error {
	args := m.Called(ctx, requesterID, ownerID, noteID, title, content)
	return args.Error(0)
}

func (m *MockService) DeleteNote(ctx context.Context, requesterID, ownerID string, noteID uint64) error {
	args := m.Called(ctx, requesterID, ownerID, noteID)
	return args.Error(0)
}

func (m *MockService) ListVisible(ctx context.Context, userID string) ([]NoteSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]NoteSummary), args.Error(1)
}

func (m *MockService) HasPermission(ctx context.Context, ownerID string, noteID uint64, requesterID string, perm domain.Permission) (bool, error) {
	args := m.Called(ctx, ownerID, noteID, requesterID, perm)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) GetPermissions(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) (domain.PermissionSet, error) {
	args := m.Called(ctx, requesterID, ownerID, noteID, targetID)
	return args.Get(0).(domain.PermissionSet), args.Error(1)
}

func (m *MockService) Share(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error {
	args := m.Called(ctx, requesterID, ownerID, noteID, targetID)
	return args.Error(0)
}

func (m *MockService) SetPermission(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string, perm string, value bool) error {
	args := m.Called(ctx, requesterID, ownerID, noteID, targetID, perm, value)
	return args.Error(0)
}

func (m *MockService) DeleteShare(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error {
	args := m.Called(ctx, requesterID, ownerID, noteID, targetID)
	return args.Error(0)
}

func setupRouter(handler *Handler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})

	notes := router.Group("/notes")
	notes.POST("", handler.Create)
	notes.GET("", handler.ListVisible)
	notes.GET("/:ownerId/:noteId", handler.Show)
	notes.PUT("/:ownerId/:noteId", handler.Edit)
	notes.DELETE("/:ownerId/:noteId", handler.Delete)
	notes.POST("/:ownerId/:noteId/share", handler.Share)
	notes.DELETE("/:ownerId/:noteId/share", handler.DeleteShare)
	notes.PUT("/:ownerId/:noteId/permissions", handler.SetPermission)
	notes.GET("/:ownerId/:noteId/permissions", handler.ShowPermissions)

	return router
}

func TestCreateNote(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	mockService.On("CreateNote", mock.Anything, "alice").
		Return(&domain.Note{OwnerID: "alice", NoteID: 1, Title: domain.DefaultNoteTitle}, nil)

	req := httptest.NewRequest("POST", "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(1), response["note_id"])
	mockService.AssertExpectations(t)
}

func TestShowNote_MalformedNoteID(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	req := httptest.NewRequest("GET", "/notes/alice/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetNote")
}

func TestShowNote_MalformedOwnerID(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	// "a!" fails the id shape check before any storage call
	req := httptest.NewRequest("GET", "/notes/a!/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetNote")
}

func TestShowNote_NoPermission(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "mallory")

	mockService.On("GetNote", mock.Anything, "mallory", "alice", uint64(1)).
		Return(nil, apiError.NotFound("Note not found or no permission", nil))

	req := httptest.NewRequest("GET", "/notes/alice/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]any
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Note not found or no permission", response["error"])
}

func TestEditNote(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "bob")

	mockService.On("EditNote", mock.Anything, "bob", "alice", uint64(3), "", "hello").
		Return(nil)

	body, _ := json.Marshal(EditRequest{Content: "hello"})
	req := httptest.NewRequest("PUT", "/notes/alice/3", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestShareNote(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	mockService.On("Share", mock.Anything, "alice", "alice", uint64(1), "bobby").
		Return(nil)

	body, _ := json.Marshal(ShareRequest{TargetUser: "bobby"})
	req := httptest.NewRequest("POST", "/notes/alice/1/share", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestSetPermission_MissingValue(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	body, _ := json.Marshal(map[string]any{
		"target_user": "bobby",
		"permission":  "can_write",
	})
	req := httptest.NewRequest("PUT", "/notes/alice/1/permissions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SetPermission")
}

func TestSetPermission_FalseValueAccepted(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	mockService.On("SetPermission", mock.Anything, "alice", "alice", uint64(1), "bobby", "can_write", false).
		Return(nil)

	body, _ := json.Marshal(map[string]any{
		"target_user": "bobby",
		"permission":  "can_write",
		"value":       false,
	})
	req := httptest.NewRequest("PUT", "/notes/alice/1/permissions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestShowPermissions(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	mockService.On("GetPermissions", mock.Anything, "alice", "alice", uint64(1), "bobby").
		Return(domain.PermissionSet{CanRead: true}, nil)

	req := httptest.NewRequest("GET", "/notes/alice/1/permissions?target_user=bobby", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Permissions domain.PermissionSet `json:"permissions"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.True(t, response.Permissions.CanRead)
	assert.False(t, response.Permissions.CanWrite)
}

func TestListVisible_Pagination(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter(handler, "alice")

	summaries := make([]NoteSummary, 15)
	for i := range summaries {
		summaries[i] = NoteSummary{OwnerID: "alice", NoteID: uint64(i + 1)}
	}
	mockService.On("ListVisible", mock.Anything, "alice").Return(summaries, nil)

	req := httptest.NewRequest("GET", "/notes?page=2&per_page=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		NoteList []NoteSummary  `json:"note_list"`
		Meta     map[string]any `json:"meta"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Len(t, response.NoteList, 5)
	assert.Equal(t, float64(15), response.Meta["total"])
	assert.Equal(t, float64(2), response.Meta["total_page"])
}
