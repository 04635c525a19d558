package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/blogmind-client/internal/domain"
	"github.com/samvad-hq/blogmind-client/internal/session"
)

const passwordEnv = "BLOGMIND_PASSWORD"

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in with email and password. The password is read from --password,
then $BLOGMIND_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(password)
			if err != nil {
				return err
			}
			user, err := c.app.Session().Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			return c.emit(cmd, user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "signed in as %s <%s>\n", user.Name, user.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var in domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := c.password(in.Password)
			if err != nil {
				return err
			}
			in.Password = pw
			user, err := c.app.Session().Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			signedIn := c.app.Session().Authenticated()
			return c.emit(cmd, user, func(w io.Writer) error {
				if user == nil {
					_, err := fmt.Fprintln(w, "account created, run `blogmind login`")
					return err
				}
				msg := "account created for %s <%s>, run `blogmind login`\n"
				if signedIn {
					msg = "account created, signed in as %s <%s>\n"
				}
				_, err := fmt.Fprintf(w, msg, user.Name, user.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "Short bio")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session().Logout(); err != nil {
				return err
			}
			return c.printf(cmd, "signed out\n")
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.requireUser(cmd)
			if err != nil {
				return err
			}
			return c.emit(cmd, user, func(w io.Writer) error { return writeUser(w, user) })
		},
	}
}

func newProfileCmd(c *cli) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var name, email, bio, avatar string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the given flags are sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.requireUser(cmd); err != nil {
				return err
			}
			var in domain.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &name
			}
			if flags.Changed("email") {
				in.Email = &email
			}
			if flags.Changed("bio") {
				in.Bio = &bio
			}
			if flags.Changed("avatar") {
				in.Avatar = &avatar
			}
			if in == (domain.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one of --name, --email, --bio, --avatar")
			}
			user, err := c.app.Session().UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.emit(cmd, user, func(w io.Writer) error { return writeUser(w, user) })
		},
	}
	update.Flags().StringVar(&name, "name", "", "Display name")
	update.Flags().StringVar(&email, "email", "", "Email")
	update.Flags().StringVar(&bio, "bio", "", "Short bio")
	update.Flags().StringVar(&avatar, "avatar", "", "Avatar URL (see `upload avatar`)")

	profile.AddCommand(update)
	return profile
}

// requireUser probes the stored session and fails when nobody is signed in.
func (c *cli) requireUser(cmd *cobra.Command) (*domain.User, error) {
	sess := c.app.Session()
	if err := sess.Init(cmd.Context()); err != nil {
		return nil, err
	}
	user := sess.User()
	if user == nil {
		return nil, session.ErrNotSignedIn
	}
	return user, nil
}

// password resolves the password from the flag, the environment, or stdin.
func (c *cli) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	if c.in == nil {
		return "", fmt.Errorf("password required: use --password or $%s", passwordEnv)
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password required: use --password, $%s or stdin", passwordEnv)
	}
	return line, nil
}
