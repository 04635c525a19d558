package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/blogmind-client/internal/domain"
)

// BlogService covers posts, likes and categories.
type BlogService struct {
	c *Client
}

// List returns posts matching params.
func (s *BlogService) List(ctx context.Context, params domain.ListPostsParams) ([]domain.Post, error) {
	var out []domain.Post
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/blogs", query: listQuery(params)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search is List filtered by a free-text query.
func (s *BlogService) Search(ctx context.Context, query string, limit int) ([]domain.Post, error) {
	return s.List(ctx, domain.ListPostsParams{Search: strings.TrimSpace(query), Limit: limit})
}

// ByCategory lists posts in a category slug.
func (s *BlogService) ByCategory(ctx context.Context, slug string, limit int) ([]domain.Post, error) {
	if err := requireID(http.MethodGet, "/blogs", "category", slug); err != nil {
		return nil, err
	}
	return s.List(ctx, domain.ListPostsParams{Category: slug, Limit: limit})
}

// ByTag lists posts carrying a tag slug.
func (s *BlogService) ByTag(ctx context.Context, slug string, limit int) ([]domain.Post, error) {
	if err := requireID(http.MethodGet, "/blogs", "tag", slug); err != nil {
		return nil, err
	}
	return s.List(ctx, domain.ListPostsParams{Tag: slug, Limit: limit})
}

// Get fetches one post by slug.
func (s *BlogService) Get(ctx context.Context, slug string) (*domain.Post, error) {
	if err := requireID(http.MethodGet, "/blogs/{slug}", "slug", slug); err != nil {
		return nil, err
	}
	var out domain.Post
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/blogs/" + segment(slug)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create publishes a new post.
func (s *BlogService) Create(ctx context.Context, in domain.PostInput) (*domain.Post, error) {
	var fields []FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, FieldError{Field: "title", Message: "is required"})
	}
	if strings.TrimSpace(in.Content) == "" {
		fields = append(fields, FieldError{Field: "content", Message: "is required"})
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		fields = append(fields, FieldError{Field: "category_id", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, &Error{
			Kind:    KindValidation,
			Method:  http.MethodPost,
			Path:    "/blogs",
			Message: "post is incomplete",
			Fields:  fields,
		}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	var out domain.Post
	if err := s.c.do(ctx, call{method: http.MethodPost, path: "/blogs", json: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes the given fields of a post by id.
func (s *BlogService) Update(ctx context.Context, id string, in domain.PostUpdate) (*domain.Post, error) {
	if err := requireID(http.MethodPut, "/blogs/{id}", "id", id); err != nil {
		return nil, err
	}
	var out domain.Post
	if err := s.c.do(ctx, call{method: http.MethodPut, path: "/blogs/" + segment(id), json: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a post by id.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := requireID(http.MethodDelete, "/blogs/{id}", "id", id); err != nil {
		return err
	}
	return s.c.do(ctx, call{method: http.MethodDelete, path: "/blogs/" + segment(id)}, nil)
}

// Like toggles the current user's like on a post.
func (s *BlogService) Like(ctx context.Context, slug string) (*domain.Message, error) {
	if err := requireID(http.MethodPost, "/blogs/{slug}/like", "slug", slug); err != nil {
		return nil, err
	}
	var out domain.Message
	if err := s.c.do(ctx, call{method: http.MethodPost, path: "/blogs/" + segment(slug) + "/like"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists every category.
func (s *BlogService) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/blogs/categories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mine lists the current user's posts.
func (s *BlogService) Mine(ctx context.Context) ([]domain.Post, error) {
	var out []domain.Post
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/users/blogs"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Liked lists posts the current user liked.
func (s *BlogService) Liked(ctx context.Context) ([]domain.Post, error) {
	var out []domain.Post
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/users/liked"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listQuery(p domain.ListPostsParams) url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			q.Set(key, val)
		}
	}
	set("search", p.Search)
	set("category", p.Category)
	set("tag", p.Tag)
	set("sort", p.Sort)
	if p.Skip > 0 {
		q.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}
