package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// UpdatePostPayload holds optional field updates for a post.
type UpdatePostPayload struct {
	Title     *string
	Content   *string
	Published *bool
}

// PostService manages blog posts.
type PostService struct {
	posts      repository.PostRepository
	dispatcher events.Dispatcher
}

// NewPostService builds the service.
func NewPostService(posts repository.PostRepository, dispatcher events.Dispatcher) *PostService {
	return &PostService{posts: posts, dispatcher: dispatcher}
}

// List returns all posts with author info, newest first.
func (s *PostService) List(ctx context.Context) ([]domain.PostWithAuthor, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return posts, nil
}

// Get returns one post by id.
func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*domain.PostWithAuthor, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("post")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return post, nil
}

// Create stores a new post owned by the authenticated author.
func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, title, content string, published bool) (*domain.Post, error) {
	post := &domain.Post{
		ID:        uuid.New(),
		UserID:    authorID,
		Title:     title,
		Content:   content,
		Published: published,
		CreatedAt: time.Now(),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventPostCreated, post.ID, &authorID,
			events.PostCreatedPayload{Title: post.Title, Published: post.Published}))
	}
	return post, nil
}

// Update applies partial changes to a post.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, payload UpdatePostPayload) (*domain.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	post := existing.Post
	if payload.Title != nil {
		post.Title = *payload.Title
	}
	if payload.Content != nil {
		post.Content = *payload.Content
	}
	if payload.Published != nil {
		post.Published = *payload.Published
	}

	if err := s.posts.Update(ctx, &post); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("post")
		}
		return nil, apperrors.NewInternalError(err)
	}

	now := time.Now()
	post.UpdatedAt = &now

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventPostUpdated, post.ID, &actorID, nil))
	}
	return &post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("post")
		}
		return apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.NewEvent(events.EventPostDeleted, id, &actorID, nil))
	}
	return nil
}
