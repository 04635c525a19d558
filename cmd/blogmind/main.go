package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/blogmind-client/internal/app"
	"github.com/samvad-hq/blogmind-client/internal/config"
	"github.com/samvad-hq/blogmind-client/internal/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{in: stdin}
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// cli carries the runtime shared by every command of one invocation.
type cli struct {
	in     io.Reader
	asJSON bool
	app    *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "blogmind",
		Short:         "Command line client for the BlogMind blog platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	root.PersistentFlags().String("api-base-url", "", "API base URL (env BLOGMIND_API_BASE_URL)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env BLOGMIND_LOG_LEVEL)")
	root.PersistentFlags().String("session-path", "", "Session database path (env BLOGMIND_SESSION_PATH)")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Print raw JSON")

	root.AddCommand(
		newPingCmd(c),
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newProfileCmd(c),
		newPostsCmd(c),
		newCommentsCmd(c),
		newUploadCmd(c),
		newAnalyticsCmd(c),
		newDashboardCmd(c),
		newReadCmd(c),
	)
	return root
}

// init loads config, logging and the app runtime once per invocation.
func (c *cli) init(cmd *cobra.Command) error {
	if c.app != nil {
		return nil
	}
	cfg, err := config.Load(cmd.Root().PersistentFlags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.DebugObj("blogmind starting", "config", cfg)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		if err := c.app.Close(); err != nil {
			logger.WarnObj("shutdown failed", "error", err.Error())
		}
		c.app = nil
	}
	_ = logger.Close()
}

func newPingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.API().Ping(cmd.Context()); err != nil {
				return err
			}
			return c.printf(cmd, "ok %s\n", c.app.Config().APIBaseURL)
		},
	}
}
