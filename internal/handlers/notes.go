package handlers

import (
	"errors"
	"log"

	"keep-notes-api/internal/middleware"
	"keep-notes-api/internal/models"
	"keep-notes-api/internal/repository"
	"keep-notes-api/pkg/cache"
	"keep-notes-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	noteRepo repository.NoteRepository
	cache    *cache.Service
}

func NewNoteHandler(noteRepo repository.NoteRepository, cacheService *cache.Service) *NoteHandler {
	return &NoteHandler{noteRepo: noteRepo, cache: cacheService}
}

// GetNotes lists every note of the caller matching the archived/deleted
// query flags, pinned first, then most recently updated.
func (h *NoteHandler) GetNotes(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	archived := c.Query("archived") == "true"
	deleted := c.Query("deleted") == "true"

	ctx := c.Request.Context()
	key := cache.NotesListKey(userID, archived, deleted)

	var cached []*models.Note
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		response.OK(c, cached)
		return
	}

	notes, err := h.noteRepo.GetAll(userID, archived, deleted)
	if err != nil {
		log.Printf("Error fetching notes: %v", err)
		response.InternalServerError(c, "Failed to fetch notes")
		return
	}

	if err := h.cache.Set(ctx, key, notes); err != nil {
		log.Printf("Failed to cache notes list: %v", err)
	}

	response.OK(c, notes)
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	newNote, err := req.Defaults()
	if err != nil {
		response.BadRequest(c, "Invalid reminder")
		return
	}

	note, err := h.noteRepo.Create(userID, newNote)
	if err != nil {
		log.Printf("Error creating note: %v", err)
		response.InternalServerError(c, "Failed to create note")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.Created(c, note)
}

func (h *NoteHandler) GetNote(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	key := cache.NoteKey(id, userID)

	var cached models.Note
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		response.OK(c, &cached)
		return
	}

	note, err := h.noteRepo.GetByID(id, userID)
	if err != nil {
		log.Printf("Error fetching note: %v", err)
		response.InternalServerError(c, "Failed to fetch note")
		return
	}

	if note == nil {
		response.NotFound(c, "Note not found")
		return
	}

	if err := h.cache.Set(ctx, key, note); err != nil {
		log.Printf("Failed to cache note: %v", err)
	}

	response.OK(c, note)
}

// UpdateNote applies a partial update: only keys present in the body are
// touched, and replacing tagIds swaps the full association set.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	var req models.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	changes, err := req.Changes()
	if err != nil {
		response.BadRequest(c, "Invalid reminder")
		return
	}

	note, err := h.noteRepo.Update(c.Param("id"), userID, changes)
	if err != nil {
		log.Printf("Error updating note: %v", err)
		response.InternalServerError(c, "Failed to update note")
		return
	}

	if note == nil {
		response.NotFound(c, "Note not found")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.OK(c, note)
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	if err := h.noteRepo.Delete(c.Param("id"), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "Note not found")
			return
		}
		log.Printf("Error deleting note: %v", err)
		response.InternalServerError(c, "Failed to delete note")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.Message(c, "Note deleted successfully")
}
