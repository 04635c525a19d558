package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/blogmind-client/internal/content"
	"github.com/samvad-hq/blogmind-client/internal/domain"
)

func newPostsCmd(c *cli) *cobra.Command {
	posts := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post", "blogs"},
		Short:   "Browse and manage posts",
	}
	posts.AddCommand(
		newPostsListCmd(c),
		newPostsSearchCmd(c),
		newPostsGetCmd(c),
		newPostsCreateCmd(c),
		newPostsUpdateCmd(c),
		newPostsDeleteCmd(c),
		newPostsLikeCmd(c),
		newPostsCategoriesCmd(c),
		newPostsMineCmd(c),
		newPostsLikedCmd(c),
	)
	return posts
}

func newPostsListCmd(c *cli) *cobra.Command {
	var params domain.ListPostsParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.API().Blogs.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writePosts(w, out) })
		},
	}
	cmd.Flags().StringVar(&params.Search, "search", "", "Free-text filter")
	cmd.Flags().StringVar(&params.Category, "category", "", "Category slug")
	cmd.Flags().StringVar(&params.Tag, "tag", "", "Tag slug")
	cmd.Flags().StringVar(&params.Sort, "sort", "", "Sort order, e.g. latest or popular")
	cmd.Flags().IntVar(&params.Skip, "skip", 0, "Posts to skip")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Maximum posts to return")
	return cmd
}

func newPostsSearchCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.API().Blogs.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writePosts(w, out) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum posts to return")
	return cmd
}

func newPostsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := c.app.API().Blogs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, post, func(w io.Writer) error { return writePost(w, post) })
		},
	}
}

// postFlags are shared by create and update.
type postFlags struct {
	title    string
	body     string
	bodyFile string
	excerpt  string
	category string
	cover    string
	tags     []string
	draft    bool
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title")
	cmd.Flags().StringVar(&f.body, "content", "", "Post content (HTML or text)")
	cmd.Flags().StringVar(&f.bodyFile, "content-file", "", "Read content from a file, - for stdin")
	cmd.Flags().StringVar(&f.excerpt, "excerpt", "", "Summary; derived from content when omitted on create")
	cmd.Flags().StringVar(&f.category, "category", "", "Category id")
	cmd.Flags().StringVar(&f.cover, "cover", "", "Cover image URL; defaults to the first image in content on create")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "Comma separated tags")
	cmd.Flags().BoolVar(&f.draft, "draft", false, "Save unpublished")
}

// content resolves --content or --content-file.
func (f *postFlags) content(c *cli) (string, bool, error) {
	if f.bodyFile == "" {
		return f.body, f.body != "", nil
	}
	var (
		raw []byte
		err error
	)
	if f.bodyFile == "-" {
		if c.in == nil {
			return "", false, fmt.Errorf("no stdin to read content from")
		}
		raw, err = io.ReadAll(c.in)
	} else {
		raw, err = os.ReadFile(f.bodyFile)
	}
	if err != nil {
		return "", false, fmt.Errorf("read content: %w", err)
	}
	return string(raw), true, nil
}

// postPreview is what `posts create --dry-run` prints instead of publishing.
type postPreview struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"cover_image,omitempty"`
	ReadTime   int    `json:"read_time_minutes"`
	Words      int    `json:"words"`
}

func previewPost(in domain.PostInput) postPreview {
	return postPreview{
		Slug:       content.Slugify(in.Title),
		Title:      in.Title,
		Excerpt:    in.Excerpt,
		CoverImage: in.CoverImage,
		ReadTime:   content.ReadTime(in.Content),
		Words:      content.WordCount(in.Content),
	}
}

func newPostsCreateCmd(c *cli) *cobra.Command {
	var f postFlags
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, _, err := f.content(c)
			if err != nil {
				return err
			}
			in := domain.PostInput{
				Title:      f.title,
				Content:    body,
				Excerpt:    f.excerpt,
				CategoryID: f.category,
				Tags:       f.tags,
				CoverImage: f.cover,
			}
			if in.Excerpt == "" {
				in.Excerpt = content.Excerpt(body, excerptLength)
			}
			if in.CoverImage == "" {
				in.CoverImage = content.FirstImage(body)
			}
			published := !f.draft
			in.Published = &published

			if dryRun {
				p := previewPost(in)
				return c.emit(cmd, p, func(w io.Writer) error {
					fmt.Fprintf(w, "slug:\t%s\n", p.Slug)
					fmt.Fprintf(w, "excerpt:\t%s\n", p.Excerpt)
					if p.CoverImage != "" {
						fmt.Fprintf(w, "cover:\t%s\n", p.CoverImage)
					}
					_, err := fmt.Fprintf(w, "read time:\t%d min (%d words)\n", p.ReadTime, p.Words)
					return err
				})
			}

			post, err := c.app.API().Blogs.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.emit(cmd, post, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "created %s (id %s)\n", post.Slug, post.ID)
				return err
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the derived slug, excerpt and read time without publishing")
	return cmd
}

func newPostsUpdateCmd(c *cli) *cobra.Command {
	var f postFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a post; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var in domain.PostUpdate
			if flags.Changed("title") {
				in.Title = &f.title
			}
			body, changed, err := f.content(c)
			if err != nil {
				return err
			}
			if changed || flags.Changed("content") {
				in.Content = &body
			}
			if flags.Changed("excerpt") {
				in.Excerpt = &f.excerpt
			}
			if flags.Changed("category") {
				in.CategoryID = &f.category
			}
			if flags.Changed("cover") {
				in.CoverImage = &f.cover
			}
			if flags.Changed("tags") {
				in.Tags = &f.tags
			}
			if flags.Changed("draft") {
				published := !f.draft
				in.Published = &published
			}
			if in == (domain.PostUpdate{}) {
				return fmt.Errorf("nothing to update")
			}

			post, err := c.app.API().Blogs.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return c.emit(cmd, post, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "updated %s\n", post.Slug)
				return err
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newPostsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.API().Blogs.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.printf(cmd, "deleted %s\n", args[0])
		},
	}
}

func newPostsLikeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "like <slug>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := c.app.API().Blogs.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, msg, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, msg.Message)
				return err
			})
		},
	}
}

func newPostsCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := c.app.API().Blogs.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, cats, func(w io.Writer) error {
				fmt.Fprintln(w, "ID\tSLUG\tNAME")
				for _, cat := range cats {
					fmt.Fprintf(w, "%s\t%s\t%s\n", cat.ID, cat.Slug, cat.Name)
				}
				return nil
			})
		},
	}
}

func newPostsMineCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your posts, drafts included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.API().Blogs.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writePosts(w, out) })
		},
	}
}

func newPostsLikedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "liked",
		Short: "List posts you liked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.API().Blogs.Liked(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writePosts(w, out) })
		},
	}
}
