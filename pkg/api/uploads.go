package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/samvad-hq/blogmind-client/internal/domain"
	"github.com/samvad-hq/blogmind-client/pkg/httpclient"
)

// UploadService covers avatar and post image uploads.
type UploadService struct {
	c *Client
}

// Avatar uploads a new avatar for the current user.
func (s *UploadService) Avatar(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	return s.upload(ctx, "/uploads/avatar", fileName, r)
}

// BlogImage uploads an image for use in a post.
func (s *UploadService) BlogImage(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	return s.upload(ctx, "/uploads/blog-image", fileName, r)
}

func (s *UploadService) upload(ctx context.Context, path, fileName string, r io.Reader) (*domain.UploadResult, error) {
	if err := requireID(http.MethodPost, path, "file", fileName); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &Error{Kind: KindValidation, Method: http.MethodPost, Path: path, Message: "file content is required"}
	}

	var out domain.UploadResult
	err := s.c.do(ctx, call{
		method: http.MethodPost,
		path:   path,
		file:   &httpclient.FileField{Param: "file", FileName: filepath.Base(fileName), Reader: r},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
