package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"keep-notes-api/internal/models"

	"github.com/rs/xid"
)

type TagRepository interface {
	Create(userID, name string) (*models.Tag, error)
	GetByID(id, userID string) (*models.Tag, error)
	GetAll(userID string) ([]*models.TagWithCount, error)
	Rename(id, userID, name string) (*models.Tag, error)
	Delete(id, userID string) error
	NameExists(userID, name, excludeID string) (bool, error)
}

type tagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(userID, name string) (*models.Tag, error) {
	id := xid.New().String()

	query := `INSERT INTO tags (id, user_id, name) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, id, userID, name); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return r.GetByID(id, userID)
}

func (r *tagRepository) GetByID(id, userID string) (*models.Tag, error) {
	query := `SELECT id, user_id, name, created_at FROM tags WHERE id = ? AND user_id = ?`

	tag := &models.Tag{}
	err := r.db.QueryRow(query, id, userID).Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

func (r *tagRepository) GetAll(userID string) ([]*models.TagWithCount, error) {
	query := `SELECT t.id, t.user_id, t.name, t.created_at, COUNT(nt.note_id)
              FROM tags t
              LEFT JOIN note_tags nt ON nt.tag_id = t.id
              WHERE t.user_id = ?
              GROUP BY t.id, t.user_id, t.name, t.created_at
              ORDER BY t.name ASC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	defer rows.Close()

	tags := []*models.TagWithCount{}
	for rows.Next() {
		tag := &models.TagWithCount{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt, &tag.NoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

func (r *tagRepository) Rename(id, userID, name string) (*models.Tag, error) {
	result, err := r.db.Exec(`UPDATE tags SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to rename tag: %w", err)
	}

	if _, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return r.GetByID(id, userID)
}

func (r *tagRepository) Delete(id, userID string) error {
	result, err := r.db.Exec(`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
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

// NameExists reports whether another tag owned by the same user already
// carries the name. excludeID skips the tag being renamed.
func (r *tagRepository) NameExists(userID, name, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM tags WHERE user_id = ? AND name = ? AND id != ?`

	var count int
	if err := r.db.QueryRow(query, userID, name, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check tag name: %w", err)
	}

	return count > 0, nil
}
