package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/samvad-hq/blogmind-client/internal/domain"
)

// CommentService covers post comments.
type CommentService struct {
	c *Client
}

type commentBody struct {
	BlogID  string `json:"blog_id,omitempty"`
	Content string `json:"content"`
}

// List returns the comments on a post by id.
func (s *CommentService) List(ctx context.Context, blogID string) ([]domain.Comment, error) {
	if err := requireID(http.MethodGet, "/comments/blog/{id}", "blog_id", blogID); err != nil {
		return nil, err
	}
	var out []domain.Comment
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/comments/blog/" + segment(blogID)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add posts a comment on a post by id.
func (s *CommentService) Add(ctx context.Context, blogID, content string) (*domain.Comment, error) {
	if err := requireID(http.MethodPost, "/comments", "blog_id", blogID); err != nil {
		return nil, err
	}
	if err := requireID(http.MethodPost, "/comments", "content", content); err != nil {
		return nil, err
	}
	var out domain.Comment
	body := commentBody{BlogID: strings.TrimSpace(blogID), Content: content}
	if err := s.c.do(ctx, call{method: http.MethodPost, path: "/comments", json: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a comment's text.
func (s *CommentService) Update(ctx context.Context, commentID, content string) (*domain.Comment, error) {
	if err := requireID(http.MethodPut, "/comments/{id}", "id", commentID); err != nil {
		return nil, err
	}
	if err := requireID(http.MethodPut, "/comments/{id}", "content", content); err != nil {
		return nil, err
	}
	var out domain.Comment
	err := s.c.do(ctx, call{
		method: http.MethodPut,
		path:   "/comments/" + segment(commentID),
		json:   commentBody{Content: content},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, commentID string) error {
	if err := requireID(http.MethodDelete, "/comments/{id}", "id", commentID); err != nil {
		return err
	}
	return s.c.do(ctx, call{method: http.MethodDelete, path: "/comments/" + segment(commentID)}, nil)
}

// Mine lists the current user's comments with their post reference.
func (s *CommentService) Mine(ctx context.Context) ([]domain.Comment, error) {
	var out []domain.Comment
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/users/comments"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
