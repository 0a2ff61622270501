package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Tag struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TagWithCount is the list form of a tag, annotated with the number of
// notes currently referencing it.
type TagWithCount struct {
	Tag
	NoteCount int `json:"noteCount"`
}

// TagRequest is the body for both tag creation and rename.
type TagRequest struct {
	Name string `json:"name"`
}

func (r TagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}
