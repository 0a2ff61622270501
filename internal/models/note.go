package models

import (
	"fmt"
	"time"
)

// DefaultNoteColor is applied when a note is created without a color.
const DefaultNoteColor = "#ffffff"

type Note struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"userId" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Content    string     `json:"content" db:"content"`
	Color      string     `json:"color" db:"color"`
	IsPinned   bool       `json:"isPinned" db:"is_pinned"`
	IsArchived bool       `json:"isArchived" db:"is_archived"`
	IsDeleted  bool       `json:"isDeleted" db:"is_deleted"`
	Reminder   *time.Time `json:"reminder" db:"reminder"`
	Images     []string   `json:"images" db:"images"`
	Tags       []Tag      `json:"tags"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateNoteRequest carries the optional fields of a new note. Every
// field may be omitted; Defaults() fills in the blanks.
type CreateNoteRequest struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Color      *string  `json:"color"`
	IsPinned   *bool    `json:"isPinned"`
	IsArchived *bool    `json:"isArchived"`
	Reminder   *string  `json:"reminder"`
	Images     []string `json:"images"`
	TagIDs     []string `json:"tagIds"`
}

// NewNote is the fully-defaulted form of a create request, ready for the
// repository.
type NewNote struct {
	Title      string
	Content    string
	Color      string
	IsPinned   bool
	IsArchived bool
	Reminder   *time.Time
	Images     []string
	TagIDs     []string
}

// Defaults resolves the request into a NewNote: missing strings become
// empty, a missing or empty color becomes DefaultNoteColor, missing
// booleans become false, a missing or empty reminder stays nil.
func (r *CreateNoteRequest) Defaults() (*NewNote, error) {
	n := &NewNote{
		Color:  DefaultNoteColor,
		Images: r.Images,
		TagIDs: r.TagIDs,
	}
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	if r.Color != nil && *r.Color != "" {
		n.Color = *r.Color
	}
	if r.IsPinned != nil {
		n.IsPinned = *r.IsPinned
	}
	if r.IsArchived != nil {
		n.IsArchived = *r.IsArchived
	}
	if r.Reminder != nil && *r.Reminder != "" {
		t, err := ParseReminder(*r.Reminder)
		if err != nil {
			return nil, err
		}
		n.Reminder = &t
	}
	if n.Images == nil {
		n.Images = []string{}
	}
	return n, nil
}

// UpdateNoteRequest is a partial update: a field left out of the JSON
// body is untouched, while an explicit null is a value in its own right
// (clearing reminder, for example).
type UpdateNoteRequest struct {
	Title      Optional[string]   `json:"title"`
	Content    Optional[string]   `json:"content"`
	Color      Optional[string]   `json:"color"`
	IsPinned   Optional[bool]     `json:"isPinned"`
	IsArchived Optional[bool]     `json:"isArchived"`
	IsDeleted  Optional[bool]     `json:"isDeleted"`
	Reminder   Optional[string]   `json:"reminder"`
	Images     Optional[[]string] `json:"images"`
	TagIDs     Optional[[]string] `json:"tagIds"`
}

// NoteChanges is the repository-level form of a partial update, with the
// reminder already parsed.
type NoteChanges struct {
	Title      Optional[string]
	Content    Optional[string]
	Color      Optional[string]
	IsPinned   Optional[bool]
	IsArchived Optional[bool]
	IsDeleted  Optional[bool]
	Reminder   Optional[time.Time]
	Images     Optional[[]string]
	TagIDs     Optional[[]string]
}

// Changes resolves the request into NoteChanges. A reminder supplied as
// null or "" clears the stored value; anything else must parse.
func (r *UpdateNoteRequest) Changes() (*NoteChanges, error) {
	ch := &NoteChanges{
		Title:      r.Title,
		Content:    r.Content,
		Color:      r.Color,
		IsPinned:   r.IsPinned,
		IsArchived: r.IsArchived,
		IsDeleted:  r.IsDeleted,
		Images:     r.Images,
		TagIDs:     r.TagIDs,
	}
	if r.Reminder.Set {
		ch.Reminder.Set = true
		if r.Reminder.Value != nil && *r.Reminder.Value != "" {
			t, err := ParseReminder(*r.Reminder.Value)
			if err != nil {
				return nil, err
			}
			ch.Reminder.Value = &t
		}
	}
	return ch, nil
}

// Empty reports whether the update touches nothing.
func (c *NoteChanges) Empty() bool {
	return !c.Title.Set && !c.Content.Set && !c.Color.Set &&
		!c.IsPinned.Set && !c.IsArchived.Set && !c.IsDeleted.Set &&
		!c.Reminder.Set && !c.Images.Set && !c.TagIDs.Set
}

var reminderLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseReminder parses a reminder timestamp from its wire form.
func ParseReminder(s string) (time.Time, error) {
	for _, layout := range reminderLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reminder timestamp: %q", s)
}
