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

type TagHandler struct {
	tagRepo repository.TagRepository
	cache   *cache.Service
}

func NewTagHandler(tagRepo repository.TagRepository, cacheService *cache.Service) *TagHandler {
	return &TagHandler{tagRepo: tagRepo, cache: cacheService}
}

// GetTags lists the caller's tags alphabetically, each with its note
// count.
func (h *TagHandler) GetTags(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	key := cache.TagsKey(userID)

	var cached []*models.TagWithCount
	if err := h.cache.Get(ctx, key, &cached); err == nil {
		response.OK(c, cached)
		return
	}

	tags, err := h.tagRepo.GetAll(userID)
	if err != nil {
		log.Printf("Error fetching tags: %v", err)
		response.InternalServerError(c, "Failed to fetch tags")
		return
	}

	if err := h.cache.Set(ctx, key, tags); err != nil {
		log.Printf("Failed to cache tags: %v", err)
	}

	response.OK(c, tags)
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	var req models.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, "Tag name is required")
		return
	}

	taken, err := h.tagRepo.NameExists(userID, req.Name, "")
	if err != nil {
		log.Printf("Error checking tag name: %v", err)
		response.InternalServerError(c, "Failed to create tag")
		return
	}
	if taken {
		response.BadRequest(c, "Tag already exists")
		return
	}

	tag, err := h.tagRepo.Create(userID, req.Name)
	if err != nil {
		log.Printf("Error creating tag: %v", err)
		response.InternalServerError(c, "Failed to create tag")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.Created(c, tag)
}

// UpdateTag renames a tag after re-checking the name is free among the
// caller's other tags.
func (h *TagHandler) UpdateTag(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	var req models.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.BadRequest(c, "Tag name is required")
		return
	}

	id := c.Param("id")

	existing, err := h.tagRepo.GetByID(id, userID)
	if err != nil {
		log.Printf("Error fetching tag: %v", err)
		response.InternalServerError(c, "Failed to update tag")
		return
	}
	if existing == nil {
		response.NotFound(c, "Tag not found")
		return
	}

	duplicate, err := h.tagRepo.NameExists(userID, req.Name, id)
	if err != nil {
		log.Printf("Error checking tag name: %v", err)
		response.InternalServerError(c, "Failed to update tag")
		return
	}
	if duplicate {
		response.BadRequest(c, "Tag with this name already exists")
		return
	}

	tag, err := h.tagRepo.Rename(id, userID, req.Name)
	if err != nil {
		log.Printf("Error updating tag: %v", err)
		response.InternalServerError(c, "Failed to update tag")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.OK(c, tag)
}

// DeleteTag removes a tag; the store detaches it from any notes via the
// join table cascade.
func (h *TagHandler) DeleteTag(c *gin.Context) {
	userID, exists := middleware.GetCurrentUserID(c)
	if !exists {
		response.Unauthorized(c)
		return
	}

	if err := h.tagRepo.Delete(c.Param("id"), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "Tag not found")
			return
		}
		log.Printf("Error deleting tag: %v", err)
		response.InternalServerError(c, "Failed to delete tag")
		return
	}

	h.cache.InvalidateUser(c.Request.Context(), userID)
	response.Message(c, "Tag deleted successfully")
}
