package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/domain"
)

// PostRepository defines persistence access for blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PostWithAuthor, error)
	List(ctx context.Context) ([]domain.PostWithAuthor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository returns a Postgres-backed implementation.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (id, user_id, title, content, published, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.UserID,
		post.Title,
		post.Content,
		post.Published,
		post.CreatedAt,
	)
	return err
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	const query = `
        UPDATE posts SET user_id=$1, title=$2, content=$3, published=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.Published,
		post.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const postWithAuthorColumns = `
        p.id, p.user_id, p.title, p.content, p.published, p.created_at, p.updated_at,
        u.id, u.username, u.email`

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PostWithAuthor, error) {
	query := `
        SELECT` + postWithAuthorColumns + `
        FROM posts p
        JOIN users u ON p.user_id = u.id
        WHERE p.id=$1`

	var post domain.PostWithAuthor
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Content,
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.Author.ID,
		&post.Author.Username,
		&post.Author.Email,
	); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]domain.PostWithAuthor, error) {
	query := `
        SELECT` + postWithAuthorColumns + `
        FROM posts p
        JOIN users u ON p.user_id = u.id
        ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.PostWithAuthor
	for rows.Next() {
		var post domain.PostWithAuthor
		if err := rows.Scan(
			&post.ID,
			&post.UserID,
			&post.Title,
			&post.Content,
			&post.Published,
			&post.CreatedAt,
			&post.UpdatedAt,
			&post.Author.ID,
			&post.Author.Username,
			&post.Author.Email,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
