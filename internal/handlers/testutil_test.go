package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"keep-notes-api/internal/middleware"
	"keep-notes-api/internal/models"
	"keep-notes-api/internal/repository"
	"keep-notes-api/pkg/auth"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore is an in-memory stand-in for the MySQL repositories. It
// mirrors their contract: owner-scoped reads, (nil, nil) for missing or
// foreign records, ErrNotFound from deletes, and list ordering.
type fakeStore struct {
	notes map[string]*models.Note
	tags  map[string]*models.Tag
	seq   int
	clock time.Time

	// forced error for exercising 500 paths
	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		notes: make(map[string]*models.Note),
		tags:  make(map[string]*models.Tag),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// resolveTags materializes tag records for the ids, regardless of
// owner (the store only enforces referential integrity).
func (s *fakeStore) resolveTags(tagIDs []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	for _, id := range tagIDs {
		tag, ok := s.tags[id]
		if !ok {
			return nil, fmt.Errorf("foreign key violation: tag %s", id)
		}
		tags = append(tags, *tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func copyNote(n *models.Note) *models.Note {
	cp := *n
	cp.Images = append([]string{}, n.Images...)
	cp.Tags = append([]models.Tag{}, n.Tags...)
	return &cp
}

// NoteRepository

func (s *fakeStore) Create(userID string, req *models.NewNote) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	tags, err := s.resolveTags(req.TagIDs)
	if err != nil {
		return nil, err
	}
	now := s.tick()
	note := &models.Note{
		ID:         s.nextID("note"),
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		Color:      req.Color,
		IsPinned:   req.IsPinned,
		IsArchived: req.IsArchived,
		Reminder:   req.Reminder,
		Images:     append([]string{}, req.Images...),
		Tags:       tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.notes[note.ID] = note
	return copyNote(note), nil
}

func (s *fakeStore) GetByID(id, userID string) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	note, ok := s.notes[id]
	if !ok || note.UserID != userID {
		return nil, nil
	}
	return copyNote(note), nil
}

func (s *fakeStore) GetAll(userID string, archived, deleted bool) ([]*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	notes := []*models.Note{}
	for _, note := range s.notes {
		if note.UserID == userID && note.IsArchived == archived && note.IsDeleted == deleted {
			notes = append(notes, copyNote(note))
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].IsPinned != notes[j].IsPinned {
			return notes[i].IsPinned
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (s *fakeStore) Update(id, userID string, ch *models.NoteChanges) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	note, ok := s.notes[id]
	if !ok || note.UserID != userID {
		return nil, nil
	}
	if ch.Title.Set && ch.Title.Value != nil {
		note.Title = *ch.Title.Value
	}
	if ch.Content.Set && ch.Content.Value != nil {
		note.Content = *ch.Content.Value
	}
	if ch.Color.Set && ch.Color.Value != nil {
		note.Color = *ch.Color.Value
	}
	if ch.IsPinned.Set && ch.IsPinned.Value != nil {
		note.IsPinned = *ch.IsPinned.Value
	}
	if ch.IsArchived.Set && ch.IsArchived.Value != nil {
		note.IsArchived = *ch.IsArchived.Value
	}
	if ch.IsDeleted.Set && ch.IsDeleted.Value != nil {
		note.IsDeleted = *ch.IsDeleted.Value
	}
	if ch.Reminder.Set {
		note.Reminder = ch.Reminder.Value
	}
	if ch.Images.Set && ch.Images.Value != nil {
		note.Images = append([]string{}, *ch.Images.Value...)
	}
	if ch.TagIDs.Set {
		var ids []string
		if ch.TagIDs.Value != nil {
			ids = *ch.TagIDs.Value
		}
		tags, err := s.resolveTags(ids)
		if err != nil {
			return nil, err
		}
		note.Tags = tags
	}
	note.UpdatedAt = s.tick()
	return copyNote(note), nil
}

func (s *fakeStore) Delete(id, userID string) error {
	if s.err != nil {
		return s.err
	}
	note, ok := s.notes[id]
	if !ok || note.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// TagRepository

func (s *fakeStore) CreateTag(userID, name string) (*models.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	tag := &models.Tag{
		ID:        s.nextID("tag"),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.tick(),
	}
	s.tags[tag.ID] = tag
	return tag, nil
}

func (s *fakeStore) GetTagByID(id, userID string) (*models.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	tag, ok := s.tags[id]
	if !ok || tag.UserID != userID {
		return nil, nil
	}
	cp := *tag
	return &cp, nil
}

func (s *fakeStore) GetAllTags(userID string) ([]*models.TagWithCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	tags := []*models.TagWithCount{}
	for _, tag := range s.tags {
		if tag.UserID != userID {
			continue
		}
		count := 0
		for _, note := range s.notes {
			for _, nt := range note.Tags {
				if nt.ID == tag.ID {
					count++
				}
			}
		}
		tags = append(tags, &models.TagWithCount{Tag: *tag, NoteCount: count})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *fakeStore) Rename(id, userID, name string) (*models.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	tag, ok := s.tags[id]
	if !ok || tag.UserID != userID {
		return nil, nil
	}
	tag.Name = name
	cp := *tag
	return &cp, nil
}

func (s *fakeStore) DeleteTag(id, userID string) error {
	if s.err != nil {
		return s.err
	}
	tag, ok := s.tags[id]
	if !ok || tag.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.tags, id)
	for _, note := range s.notes {
		kept := note.Tags[:0]
		for _, nt := range note.Tags {
			if nt.ID != id {
				kept = append(kept, nt)
			}
		}
		note.Tags = kept
	}
	return nil
}

// tagRepoAdapter exposes the fake store under the TagRepository method
// names, which collide with the note methods on fakeStore itself.
type tagRepoAdapter struct{ s *fakeStore }

func (a tagRepoAdapter) Create(userID, name string) (*models.Tag, error) {
	return a.s.CreateTag(userID, name)
}
func (a tagRepoAdapter) GetByID(id, userID string) (*models.Tag, error) {
	return a.s.GetTagByID(id, userID)
}
func (a tagRepoAdapter) GetAll(userID string) ([]*models.TagWithCount, error) {
	return a.s.GetAllTags(userID)
}
func (a tagRepoAdapter) Rename(id, userID, name string) (*models.Tag, error) {
	return a.s.Rename(id, userID, name)
}
func (a tagRepoAdapter) Delete(id, userID string) error {
	return a.s.DeleteTag(id, userID)
}
func (a tagRepoAdapter) NameExists(userID, name, excludeID string) (bool, error) {
	if a.s.err != nil {
		return false, a.s.err
	}
	for _, tag := range a.s.tags {
		if tag.UserID == userID && tag.Name == name && tag.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// testEnv builds a router with the fake store behind real handlers and
// real auth middleware.
func testEnv(t *testing.T) (*fakeStore, http.Handler) {
	t.Helper()

	store := newFakeStore()
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	noteHandler := NewNoteHandler(store, nil)
	tagHandler := NewTagHandler(tagRepoAdapter{store}, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(tokens))

	notes := api.Group("/notes")
	notes.GET("", noteHandler.GetNotes)
	notes.POST("", noteHandler.CreateNote)
	notes.GET("/:id", noteHandler.GetNote)
	notes.PATCH("/:id", noteHandler.UpdateNote)
	notes.DELETE("/:id", noteHandler.DeleteNote)

	tags := api.Group("/tags")
	tags.GET("", tagHandler.GetTags)
	tags.POST("", tagHandler.CreateTag)
	tags.PATCH("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)

	return store, r
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.NewTokenManager(testSecret, time.Hour).GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// doJSON sends a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, router http.Handler, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewReader([]byte(b))
		default:
			data, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) models.Note {
	t.Helper()
	var note models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatalf("decode note: %v (body %s)", err, w.Body.String())
	}
	return note
}
