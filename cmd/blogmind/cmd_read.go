package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/blogmind-client/internal/readprogress"
)

type readFlags struct {
	positions     []float64
	contentHeight float64
	windowHeight  float64
	offset        float64
	referrer      string
}

type readStep struct {
	ScrollY float64 `json:"scroll_y"`
	Percent int     `json:"percent"`
}

type readReport struct {
	Kind    string `json:"kind"`
	Percent int    `json:"percent,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readResult struct {
	Slug    string       `json:"slug"`
	ViewID  string       `json:"view_id"`
	Steps   []readStep   `json:"steps"`
	Reports []readReport `json:"reports"`
}

// newReadCmd simulates one page view of a post: it records the view, replays
// scroll positions through the read-progress reporter and prints what was
// reported.
func newReadCmd(c *cli) *cobra.Command {
	var f readFlags
	cmd := &cobra.Command{
		Use:   "read <slug>",
		Short: "Replay a page view of a post and report read progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.contentHeight <= 0 || f.windowHeight <= 0 {
				return fmt.Errorf("--content-height and --window-height must be positive")
			}
			return c.read(cmd, args[0], f)
		},
	}
	cmd.Flags().Float64SliceVar(&f.positions, "positions", []float64{0}, "Scroll offsets to replay, in pixels")
	cmd.Flags().Float64Var(&f.contentHeight, "content-height", 3000, "Height of the post body in pixels")
	cmd.Flags().Float64Var(&f.windowHeight, "window-height", 800, "Height of the window in pixels")
	cmd.Flags().Float64Var(&f.offset, "offset", 0, "Distance from the page top to the post body in pixels")
	cmd.Flags().StringVar(&f.referrer, "referrer", "", "Referrer sent with the page view")
	return cmd
}

func (c *cli) read(cmd *cobra.Command, slug string, f readFlags) error {
	var mu sync.Mutex
	var reports []readprogress.Report
	reader, err := c.app.NewReader(slug, f.referrer, func(rep readprogress.Report) {
		mu.Lock()
		reports = append(reports, rep)
		mu.Unlock()
	})
	if err != nil {
		return err
	}

	feed := readprogress.NewFeed()
	if err := reader.Mount(cmd.Context(), feed); err != nil {
		return err
	}
	defer reader.Unmount()

	res := readResult{Slug: slug, ViewID: reader.ViewID()}
	for _, y := range f.positions {
		vp := readprogress.ViewportAt(y, f.offset, f.contentHeight, f.windowHeight)
		feed.Emit(vp)
		res.Steps = append(res.Steps, readStep{ScrollY: y, Percent: readprogress.Percent(vp)})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.app.Config().ReportTimeout+time.Second)
	defer cancel()
	if err := reader.Flush(ctx); err != nil {
		return fmt.Errorf("wait for reports: %w", err)
	}

	mu.Lock()
	res.Reports = summarizeReports(reports)
	mu.Unlock()

	return c.emit(cmd, res, func(w io.Writer) error { return writeRead(w, res) })
}

// summarizeReports puts the page view first and progress in ascending order.
func summarizeReports(reports []readprogress.Report) []readReport {
	sorted := append([]readprogress.Report(nil), reports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind == readprogress.KindView
		}
		return sorted[i].Percent < sorted[j].Percent
	})
	out := make([]readReport, 0, len(sorted))
	for _, rep := range sorted {
		r := readReport{Kind: string(rep.Kind)}
		if rep.Kind == readprogress.KindReadProgress {
			r.Percent = rep.Percent
		}
		if rep.Err != nil {
			r.Error = rep.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

func writeRead(w io.Writer, res readResult) error {
	fmt.Fprintf(w, "view %s of %s\n", res.ViewID, res.Slug)
	fmt.Fprintln(w, "SCROLL\tVISIBLE")
	for _, s := range res.Steps {
		fmt.Fprintf(w, "%.0f\t%d%%\n", s.ScrollY, s.Percent)
	}
	fmt.Fprintln(w, "\nREPORT\tPERCENT\tSTATUS")
	for _, r := range res.Reports {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		pct := "-"
		if r.Kind == string(readprogress.KindReadProgress) {
			pct = fmt.Sprintf("%d", r.Percent)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Kind, pct, status)
	}
	return nil
}
