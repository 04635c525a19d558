package domain

import "time"

// Domain contains the records exchanged with the BlogMind API.

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AuthToken is returned by login and register.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Bio    *string `json:"bio,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Post struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	CategoryID    string     `json:"category_id"`
	Category      *Category  `json:"category,omitempty"`
	Tags          []string   `json:"tags"`
	CoverImage    string     `json:"cover_image,omitempty"`
	Published     bool       `json:"published"`
	Author        *User      `json:"author,omitempty"`
	ViewsCount    int        `json:"views_count"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	IsLiked       bool       `json:"is_liked"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type PostInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt"`
	CategoryID string   `json:"category_id"`
	Tags       []string `json:"tags"`
	CoverImage string   `json:"cover_image,omitempty"`
	Published  *bool    `json:"published,omitempty"`
}

// PostUpdate carries only the fields being changed.
type PostUpdate struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Excerpt    *string   `json:"excerpt,omitempty"`
	CategoryID *string   `json:"category_id,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	CoverImage *string   `json:"cover_image,omitempty"`
	Published  *bool     `json:"published,omitempty"`
}

// ListPostsParams filters the post listing. Zero values are omitted.
type ListPostsParams struct {
	Search   string
	Category string
	Tag      string
	Sort     string
	Skip     int
	Limit    int
}

// Message is the acknowledgement body of fire-and-forget endpoints.
type Message struct {
	Message string `json:"message"`
}

type Comment struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blog_id"`
	Content   string    `json:"content"`
	User      *User     `json:"user,omitempty"`
	Blog      *PostRef  `json:"blog,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostRef is the abbreviated post attached to a user's own comments.
type PostRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// UploadResult holds whichever URL the upload endpoint returned.
type UploadResult struct {
	AvatarURL string `json:"avatar_url,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// URL returns the uploaded file location.
func (u UploadResult) URL() string {
	if u.ImageURL != "" {
		return u.ImageURL
	}
	return u.AvatarURL
}

type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type DeviceCount struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type PostAnalytics struct {
	Views     map[string]any `json:"views"`
	Likes     map[string]any `json:"likes"`
	Comments  map[string]any `json:"comments"`
	Sources   []SourceCount  `json:"sources"`
	Devices   []DeviceCount  `json:"devices"`
	Countries []CountryCount `json:"countries"`
	ReadTime  map[string]any `json:"read_time"`
}

type UserAnalytics struct {
	TotalPosts       int              `json:"total_posts"`
	TotalViews       int              `json:"total_views"`
	TotalLikes       int              `json:"total_likes"`
	TotalComments    int              `json:"total_comments"`
	PostsTimeline    []TimelinePoint  `json:"posts_timeline"`
	ViewsTimeline    []TimelinePoint  `json:"views_timeline"`
	LikesTimeline    []TimelinePoint  `json:"likes_timeline"`
	CommentsTimeline []TimelinePoint  `json:"comments_timeline"`
	TopPosts         []map[string]any `json:"top_posts"`
}
