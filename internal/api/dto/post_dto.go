package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/blog-service/internal/domain"
)

const (
	titleMaxLen   = 200
	contentMaxLen = 50000
)

// CreatePostRequest payload for new posts.
type CreatePostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// Validate enforces presence and length bounds.
func (r CreatePostRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > titleMaxLen {
		return fmt.Errorf("title must be at most %d characters", titleMaxLen)
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	if len(r.Content) > contentMaxLen {
		return fmt.Errorf("content must be at most %d characters", contentMaxLen)
	}
	return nil
}

// UpdatePostRequest payload for partial post updates.
type UpdatePostRequest struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// Validate checks whichever fields are present.
func (r UpdatePostRequest) Validate() error {
	if r.Title != nil {
		if *r.Title == "" || len(*r.Title) > titleMaxLen {
			return fmt.Errorf("title must be between 1 and %d characters", titleMaxLen)
		}
	}
	if r.Content != nil {
		if *r.Content == "" || len(*r.Content) > contentMaxLen {
			return fmt.Errorf("content must be between 1 and %d characters", contentMaxLen)
		}
	}
	return nil
}

// AuthorResponse is the public projection of a post author.
type AuthorResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// PostResponse is the wire shape of a post.
type PostResponse struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Published bool            `json:"published"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	Author    *AuthorResponse `json:"author,omitempty"`
}

// NewPostResponse maps a post joined with its author.
func NewPostResponse(post *domain.PostWithAuthor) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
		Author: &AuthorResponse{
			ID:       post.Author.ID,
			Username: post.Author.Username,
			Email:    post.Author.Email,
		},
	}
}

// NewBarePostResponse maps a post without author info (create/update paths).
func NewBarePostResponse(post *domain.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}
