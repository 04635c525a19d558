package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/blogmind-client/internal/content"
	"github.com/samvad-hq/blogmind-client/internal/domain"
	"github.com/samvad-hq/blogmind-client/internal/session"
	"github.com/samvad-hq/blogmind-client/pkg/api"
)

const excerptLength = 150

// describeError turns a command failure into the line shown to the user.
func describeError(err error) string {
	if errors.Is(err, session.ErrNotSignedIn) {
		return "not signed in, run `blogmind login`"
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return "error: " + err.Error()
	}

	switch apiErr.Kind {
	case api.KindUnauthorized:
		if apiErr.Path == "/auth/login" {
			return "login failed: " + apiErr.Message
		}
		return "session expired, run `blogmind login`"
	case api.KindForbidden:
		return "not allowed: " + apiErr.Message
	case api.KindNotFound:
		return "not found: " + apiErr.Message
	case api.KindValidation:
		if len(apiErr.Fields) == 0 {
			return "invalid input: " + apiErr.Message
		}
		var b strings.Builder
		b.WriteString("invalid input:")
		for _, f := range apiErr.Fields {
			fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
		}
		return b.String()
	case api.KindNetwork:
		return "cannot reach the server, try again later" + errorDetail(apiErr)
	default:
		return "server error, try again later" + errorDetail(apiErr)
	}
}

// errorDetail is the parenthesised cause of apiErr, or "" when it has none.
func errorDetail(apiErr *api.Error) string {
	detail := apiErr.Message
	if detail == "" && apiErr.Err != nil {
		detail = apiErr.Err.Error()
	}
	if detail == "" {
		return ""
	}
	return " (" + detail + ")"
}

func (c *cli) printf(cmd *cobra.Command, format string, args ...any) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	return err
}

// emit prints v as JSON with --json, otherwise runs human.
func (c *cli) emit(cmd *cobra.Command, v any, human func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := human(tw); err != nil {
		return err
	}
	return tw.Flush()
}

func writePosts(w io.Writer, posts []domain.Post) error {
	if len(posts) == 0 {
		_, err := fmt.Fprintln(w, "no posts")
		return err
	}
	fmt.Fprintln(w, "SLUG\tTITLE\tAUTHOR\tVIEWS\tLIKES\tCOMMENTS\tREAD")
	for _, p := range posts {
		author := ""
		if p.Author != nil {
			author = p.Author.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d min\n",
			p.Slug, content.Truncate(p.Title, 48), author,
			p.ViewsCount, p.LikesCount, p.CommentsCount, content.ReadTime(p.Content))
	}
	return nil
}

func writePost(w io.Writer, p *domain.Post) error {
	fmt.Fprintf(w, "%s\n", p.Title)
	if p.Author != nil {
		fmt.Fprintf(w, "by %s (%s)", p.Author.Name, content.Initials(p.Author.Name))
	}
	if p.PublishedAt != nil {
		fmt.Fprintf(w, "  %s", content.FormatDate(*p.PublishedAt))
	}
	fmt.Fprintf(w, "  %d min read\n", content.ReadTime(p.Content))
	if p.Category != nil {
		fmt.Fprintf(w, "category:\t%s\n", p.Category.Name)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "tags:\t%s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(w, "id:\t%s\nslug:\t%s\n", p.ID, p.Slug)
	fmt.Fprintf(w, "views:\t%d\nlikes:\t%d\ncomments:\t%d\n", p.ViewsCount, p.LikesCount, p.CommentsCount)
	_, err := fmt.Fprintf(w, "\n%s\n", content.PlainText(p.Content))
	return err
}

func writeUser(w io.Writer, u *domain.User) error {
	fmt.Fprintf(w, "id:\t%s\n", u.ID)
	fmt.Fprintf(w, "name:\t%s (%s)\n", u.Name, content.Initials(u.Name))
	fmt.Fprintf(w, "email:\t%s\n", u.Email)
	if u.Bio != "" {
		fmt.Fprintf(w, "bio:\t%s\n", u.Bio)
	}
	if u.Avatar != "" {
		fmt.Fprintf(w, "avatar:\t%s\n", u.Avatar)
	}
	return nil
}

func writeComments(w io.Writer, comments []domain.Comment) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(w, "no comments")
		return err
	}
	fmt.Fprintln(w, "ID\tAUTHOR\tPOST\tDATE\tCOMMENT")
	for _, cm := range comments {
		author, post := "", cm.BlogID
		if cm.User != nil {
			author = cm.User.Name
		}
		if cm.Blog != nil {
			post = cm.Blog.Slug
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			cm.ID, author, post, content.FormatDate(cm.CreatedAt), content.Truncate(content.PlainText(cm.Content), 60))
	}
	return nil
}
