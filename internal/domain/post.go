package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is the domain model for blog posts.
type Post struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Content   string
	Published bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Author is the public projection of a post's owner.
type Author struct {
	ID       uuid.UUID
	Username string
	Email    string
}

// PostWithAuthor joins a post with its author's public fields.
type PostWithAuthor struct {
	Post
	Author Author
}
