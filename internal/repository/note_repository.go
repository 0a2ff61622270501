package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"keep-notes-api/internal/models"

	"github.com/rs/xid"
)

// ErrNotFound is returned when a record does not exist or is owned by a
// different user; the two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found or not owned by user")

type NoteRepository interface {
	Create(userID string, note *models.NewNote) (*models.Note, error)
	GetByID(id, userID string) (*models.Note, error)
	GetAll(userID string, archived, deleted bool) ([]*models.Note, error)
	Update(id, userID string, changes *models.NoteChanges) (*models.Note, error)
	Delete(id, userID string) error
}

type noteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(userID string, note *models.NewNote) (*models.Note, error) {
	id := xid.New().String()

	images, err := json.Marshal(note.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO notes (id, user_id, title, content, color, is_pinned, is_archived, reminder, images)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.Exec(query, id, userID, note.Title, note.Content, note.Color,
		note.IsPinned, note.IsArchived, note.Reminder, images)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	if err := connectTags(tx, id, note.TagIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return r.GetByID(id, userID)
}

func (r *noteRepository) GetByID(id, userID string) (*models.Note, error) {
	query := `SELECT id, user_id, title, content, color, is_pinned, is_archived, is_deleted,
                     reminder, images, created_at, updated_at
              FROM notes WHERE id = ? AND user_id = ?`

	note, err := scanNote(r.db.QueryRow(query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if err := r.attachTags([]*models.Note{note}); err != nil {
		return nil, err
	}

	return note, nil
}

func (r *noteRepository) GetAll(userID string, archived, deleted bool) ([]*models.Note, error) {
	query := `SELECT id, user_id, title, content, color, is_pinned, is_archived, is_deleted,
                     reminder, images, created_at, updated_at
              FROM notes
              WHERE user_id = ? AND is_archived = ? AND is_deleted = ?
              ORDER BY is_pinned DESC, updated_at DESC`

	rows, err := r.db.Query(query, userID, archived, deleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	if err := r.attachTags(notes); err != nil {
		return nil, err
	}

	return notes, nil
}

func (r *noteRepository) Update(id, userID string, changes *models.NoteChanges) (*models.Note, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Ownership gate: absent and foreign notes look the same.
	var existing string
	err = tx.QueryRow(`SELECT id FROM notes WHERE id = ? AND user_id = ?`, id, userID).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check note: %w", err)
	}

	var sets []string
	var args []interface{}

	if changes.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, changes.Title.Value)
	}
	if changes.Content.Set {
		sets = append(sets, "content = ?")
		args = append(args, changes.Content.Value)
	}
	if changes.Color.Set {
		sets = append(sets, "color = ?")
		args = append(args, changes.Color.Value)
	}
	if changes.IsPinned.Set {
		sets = append(sets, "is_pinned = ?")
		args = append(args, changes.IsPinned.Value)
	}
	if changes.IsArchived.Set {
		sets = append(sets, "is_archived = ?")
		args = append(args, changes.IsArchived.Value)
	}
	if changes.IsDeleted.Set {
		sets = append(sets, "is_deleted = ?")
		args = append(args, changes.IsDeleted.Value)
	}
	if changes.Reminder.Set {
		sets = append(sets, "reminder = ?")
		args = append(args, changes.Reminder.Value)
	}
	if changes.Images.Set {
		if changes.Images.Value == nil {
			sets = append(sets, "images = ?")
			args = append(args, nil)
		} else {
			images, err := json.Marshal(*changes.Images.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode images: %w", err)
			}
			sets = append(sets, "images = ?")
			args = append(args, images)
		}
	}

	// Any update, including a tag-only one, bumps updated_at.
	if len(sets) > 0 || changes.TagIDs.Set {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		query := `UPDATE notes SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)
		if _, err := tx.Exec(query, args...); err != nil {
			return nil, fmt.Errorf("failed to update note: %w", err)
		}
	}

	// Tag replacement is clear-then-connect inside the same transaction,
	// so callers never observe the intermediate empty set.
	if changes.TagIDs.Set {
		if _, err := tx.Exec(`DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
			return nil, fmt.Errorf("failed to clear tags: %w", err)
		}
		var tagIDs []string
		if changes.TagIDs.Value != nil {
			tagIDs = *changes.TagIDs.Value
		}
		if err := connectTags(tx, id, tagIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return r.GetByID(id, userID)
}

func (r *noteRepository) Delete(id, userID string) error {
	result, err := r.db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// connectTags links a note to each tag id. Referenced tags are not
// checked for ownership; a bad id fails the transaction via the foreign
// key.
func connectTags(tx *sql.Tx, noteID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, tagID); err != nil {
			return fmt.Errorf("failed to connect tag %s: %w", tagID, err)
		}
	}
	return nil
}

// attachTags loads the tag set for each note in one query.
func (r *noteRepository) attachTags(notes []*models.Note) error {
	if len(notes) == 0 {
		return nil
	}

	byID := make(map[string]*models.Note, len(notes))
	placeholders := make([]string, 0, len(notes))
	args := make([]interface{}, 0, len(notes))
	for _, note := range notes {
		note.Tags = []models.Tag{}
		byID[note.ID] = note
		placeholders = append(placeholders, "?")
		args = append(args, note.ID)
	}

	query := `SELECT nt.note_id, t.id, t.user_id, t.name, t.created_at
              FROM note_tags nt
              JOIN tags t ON t.id = nt.tag_id
              WHERE nt.note_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY t.name ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to get note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID string
		var tag models.Tag
		if err := rows.Scan(&noteID, &tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan note tag: %w", err)
		}
		if note, ok := byID[noteID]; ok {
			note.Tags = append(note.Tags, tag)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	note := &models.Note{}
	var images []byte

	err := row.Scan(
		&note.ID, &note.UserID, &note.Title, &note.Content, &note.Color,
		&note.IsPinned, &note.IsArchived, &note.IsDeleted,
		&note.Reminder, &images, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &note.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
	}

	return note, nil
}
