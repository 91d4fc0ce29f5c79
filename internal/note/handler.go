package note

import (
	"net/http"
	"strconv"

	"note-sharing-service/internal/domain"
	"note-sharing-service/internal/errors"
	"note-sharing-service/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// noteKey extracts and validates the untrusted (owner_id, note_id) pair
// from the route. Malformed input is rejected before any storage call.
func noteKey(c *gin.Context) (string, uint64, bool) {
	ownerID := c.Param("ownerId")
	if !domain.ValidUserID(ownerID) {
		c.Error(errors.BadRequest("Invalid request", nil))
		return "", 0, false
	}

	noteID, err := strconv.ParseUint(c.Param("noteId"), 10, 64)
	if err != nil {
		c.Error(errors.BadRequest("Invalid request", err))
		return "", 0, false
	}

	return ownerID, noteID, true
}

func (h *Handler) Create(c *gin.Context) {
	userID := c.GetString("user_id")

	note, err := h.service.CreateNote(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"note_id": note.NoteID, "note": note})
}

func (h *Handler) Show(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	userID := c.GetString("user_id")

	note, err := h.service.GetNote(c.Request.Context(), userID, ownerID, noteID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"info": note})
}

type EditRequest struct {
	Title   string `json:"title" binding:"max=100"`
	Content string `json:"content"`
}

// Edit applies a partial update; empty fields keep their prior value
func (h *Handler) Edit(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	var form EditRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetString("user_id")

	err := h.service.EditNote(c.Request.Context(), userID, ownerID, noteID, form.Title, form.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Delete(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	userID := c.GetString("user_id")

	err := h.service.DeleteNote(c.Request.Context(), userID, ownerID, noteID)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListVisible returns the caller's own notes plus notes shared with
// them, paginated at the response edge.
func (h *Handler) ListVisible(c *gin.Context) {
	userID := c.GetString("user_id")

	summaries, err := h.service.ListVisible(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	page, pageSize := utils.GetPaginationParams(c)
	total := len(summaries)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"note_list": summaries[start:end],
		"meta": gin.H{
			"total":        total,
			"current_page": page,
			"per_page":     pageSize,
			"total_page":   (total + pageSize - 1) / pageSize,
		},
	})
}

type ShareRequest struct {
	TargetUser string `json:"target_user" binding:"required,min=4,max=20"`
}

func (h *Handler) Share(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	var form ShareRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetString("user_id")

	err := h.service.Share(c.Request.Context(), userID, ownerID, noteID, form.TargetUser)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteShare(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	var form ShareRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetString("user_id")

	err := h.service.DeleteShare(c.Request.Context(), userID, ownerID, noteID, form.TargetUser)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type SetPermissionRequest struct {
	TargetUser string `json:"target_user" binding:"required,min=4,max=20"`
	Permission string `json:"permission" binding:"required"`
	Value      *bool  `json:"value" binding:"required"`
}

func (h *Handler) SetPermission(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	var form SetPermissionRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID := c.GetString("user_id")

	err := h.service.SetPermission(c.Request.Context(), userID, ownerID, noteID, form.TargetUser, form.Permission, *form.Value)
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ShowPermissions(c *gin.Context) {
	ownerID, noteID, ok := noteKey(c)
	if !ok {
		return
	}

	targetUser := c.Query("target_user")
	if targetUser == "" {
		c.Error(errors.BadRequest("Invalid request", nil))
		return
	}

	userID := c.GetString("user_id")

	set, err := h.service.GetPermissions(c.Request.Context(), userID, ownerID, noteID, targetUser)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": set})
}
