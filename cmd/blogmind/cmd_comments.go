package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentsCmd(c *cli) *cobra.Command {
	comments := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Read and write comments",
	}

	list := &cobra.Command{
		Use:   "list <post-id>",
		Short: "List comments on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.API().Comments.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writeComments(w, out) })
		},
	}

	add := &cobra.Command{
		Use:   "add <post-id> <text...>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := c.app.API().Comments.Add(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.emit(cmd, cm, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "comment %s added\n", cm.ID)
				return err
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <comment-id> <text...>",
		Short: "Edit your comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := c.app.API().Comments.Update(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return c.emit(cmd, cm, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "comment %s updated\n", cm.ID)
				return err
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete your comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.API().Comments.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.printf(cmd, "comment %s deleted\n", args[0])
		},
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.API().Comments.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, out, func(w io.Writer) error { return writeComments(w, out) })
		},
	}

	comments.AddCommand(list, add, update, del, mine)
	return comments
}

func newUploadCmd(c *cli) *cobra.Command {
	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload images",
	}

	run := func(kind string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			uploads := c.app.API().Uploads
			send := uploads.BlogImage
			if kind == "avatar" {
				send = uploads.Avatar
			}
			res, err := send(cmd.Context(), f.Name(), f)
			if err != nil {
				return err
			}
			return c.emit(cmd, res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.URL())
				return err
			})
		}
	}

	upload.AddCommand(
		&cobra.Command{
			Use:   "avatar <file>",
			Short: "Upload a profile picture and print its URL",
			Args:  cobra.ExactArgs(1),
			RunE:  run("avatar"),
		},
		&cobra.Command{
			Use:   "image <file>",
			Short: "Upload a post image and print its URL",
			Args:  cobra.ExactArgs(1),
			RunE:  run("image"),
		},
	)
	return upload
}
