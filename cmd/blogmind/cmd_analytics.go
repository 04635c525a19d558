package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/blogmind-client/internal/domain"
)

func newAnalyticsCmd(c *cli) *cobra.Command {
	analytics := &cobra.Command{
		Use:   "analytics",
		Short: "Author dashboards",
	}

	var postDays, userDays int
	post := &cobra.Command{
		Use:   "post <slug>",
		Short: "Views, likes and readers of one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.API().Analytics.PostAnalytics(cmd.Context(), args[0], postDays)
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writePostAnalytics(w, out) })
		},
	}
	post.Flags().IntVar(&postDays, "days", 30, "Window in days (1-365)")

	user := &cobra.Command{
		Use:   "user",
		Short: "Totals and timelines across your posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.API().Analytics.UserAnalytics(cmd.Context(), userDays)
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writeUserAnalytics(w, out) })
		},
	}
	user.Flags().IntVar(&userDays, "days", 30, "Window in days (1-365)")

	analytics.AddCommand(post, user)
	return analytics
}

// dashboard is the combined author view: own posts and totals.
type dashboard struct {
	Posts     []domain.Post         `json:"posts"`
	Analytics *domain.UserAnalytics `json:"analytics"`
}

func newDashboardCmd(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Your posts and analytics, fetched concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out dashboard
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				posts, err := c.app.API().Blogs.Mine(ctx)
				if err != nil {
					return fmt.Errorf("load posts: %w", err)
				}
				out.Posts = posts
				return nil
			})
			g.Go(func() error {
				stats, err := c.app.API().Analytics.UserAnalytics(ctx, days)
				if err != nil {
					return fmt.Errorf("load analytics: %w", err)
				}
				out.Analytics = stats
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error {
				if err := writeUserAnalytics(w, out.Analytics); err != nil {
					return err
				}
				fmt.Fprintln(w)
				return writePosts(w, out.Posts)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Window in days (1-365)")
	return cmd
}

func writeUserAnalytics(w io.Writer, a *domain.UserAnalytics) error {
	fmt.Fprintf(w, "posts:\t%d\n", a.TotalPosts)
	fmt.Fprintf(w, "views:\t%d\n", a.TotalViews)
	fmt.Fprintf(w, "likes:\t%d\n", a.TotalLikes)
	_, err := fmt.Fprintf(w, "comments:\t%d\n", a.TotalComments)
	return err
}

func writePostAnalytics(w io.Writer, a *domain.PostAnalytics) error {
	for _, section := range []struct {
		name string
		data map[string]any
	}{
		{"views", a.Views},
		{"likes", a.Likes},
		{"comments", a.Comments},
		{"read time", a.ReadTime},
	} {
		if total, ok := section.data["total"]; ok {
			fmt.Fprintf(w, "%s:\t%v\n", section.name, total)
		}
	}
	if len(a.Sources) > 0 {
		fmt.Fprintln(w, "\nSOURCE\tCOUNT")
		sources := append([]domain.SourceCount(nil), a.Sources...)
		sort.Slice(sources, func(i, j int) bool { return sources[i].Count > sources[j].Count })
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%d\n", s.Source, s.Count)
		}
	}
	if len(a.Devices) > 0 {
		fmt.Fprintln(w, "\nDEVICE\tCOUNT")
		for _, d := range a.Devices {
			fmt.Fprintf(w, "%s\t%d\n", d.Device, d.Count)
		}
	}
	if len(a.Countries) > 0 {
		fmt.Fprintln(w, "\nCOUNTRY\tCOUNT")
		for _, c := range a.Countries {
			fmt.Fprintf(w, "%s\t%d\n", c.Country, c.Count)
		}
	}
	return nil
}
