package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/service"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// PostsHandler exposes the auth-gated post CRUD endpoints.
type PostsHandler struct {
	posts *service.PostService
}

// NewPostsHandler constructs handler.
func NewPostsHandler(postService *service.PostService) *PostsHandler {
	return &PostsHandler{posts: postService}
}

// List handles GET /api/posts.
func (h *PostsHandler) List(c *fiber.Ctx) error {
	posts, err := h.posts.List(c.Context())
	if err != nil {
		return err
	}

	out := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, dto.NewPostResponse(&posts[i]))
	}
	return c.JSON(out)
}

// Get handles GET /api/posts/:id.
func (h *PostsHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPostResponse(post))
}

// Create handles POST /api/posts. The author is always the authenticated
// caller, never a field of the payload.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewBadRequest(err.Error())
	}

	post, err := h.posts.Create(c.Context(), actorFromContext(c), req.Title, req.Content, req.Published)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewBarePostResponse(post))
}

// Update handles PATCH /api/posts/:id.
func (h *PostsHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload")
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewBadRequest(err.Error())
	}

	post, err := h.posts.Update(c.Context(), id, actorFromContext(c), service.UpdatePostPayload{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewBarePostResponse(post))
}

// Delete handles DELETE /api/posts/:id.
func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Context(), id, actorFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// actorFromContext returns the authenticated caller's id. Routes using it are
// behind the authentication middleware, so the principal is always present.
func actorFromContext(c *fiber.Ctx) uuid.UUID {
	principal, _ := auth.PrincipalFromContext(c)
	return principal.UserID
}
