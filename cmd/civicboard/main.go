// Command civicboard is a terminal client for the civic report API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"civicreport-be/client"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("civicboard")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	root := newRootCmd(out, logger)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type command struct {
	c      *client.Client
	out    io.Writer
	logger zerolog.Logger

	api         string
	sessionPath string
}

func newRootCmd(out io.Writer, logger zerolog.Logger) *cobra.Command {
	cmd := &command{out: out, logger: logger}

	root := &cobra.Command{
		Use:           "civicboard",
		Short:         "Terminal client for the civic report API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cmd.connect()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cmd.api, "api", envOr("CIVICBOARD_API", "http://localhost:5000"), "API base URL")
	root.PersistentFlags().StringVar(&cmd.sessionPath, "session", "", "session file (default ~/.civicboard/session.json)")

	root.AddCommand(
		cmd.signupCmd(),
		cmd.loginCmd(),
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored session",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				if err := cmd.c.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Logged out.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "me",
			Short: "Show the logged in profile",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return cmd.me(c.Context())
			},
		},
		cmd.boardCmd(),
		cmd.rankedCmd("top", "Show the most supported issues", client.SortSupported),
		cmd.rankedCmd("recent", "Show the newest issues", client.SortRecent),
		cmd.voteCmd("upvote", "Upvote an issue by id", func(ctx context.Context, id string) (*client.UpvoteState, error) {
			return cmd.c.Upvote(ctx, id)
		}),
		cmd.voteCmd("unvote", "Remove your upvote from an issue", func(ctx context.Context, id string) (*client.UpvoteState, error) {
			return cmd.c.RemoveUpvote(ctx, id)
		}),
		cmd.reportCmd(),
	)
	return root
}

func (cmd *command) connect() error {
	path := cmd.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return err
		}
	}
	session, err := client.LoadSession(path)
	if err != nil {
		return err
	}
	cmd.c = client.New(cmd.api, session)
	return nil
}

func (cmd *command) signupCmd() *cobra.Command {
	var in client.SignupRequest
	c := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := cmd.c.Signup(c.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.out, "Welcome, %s. You are logged in.\n", res.User.Name)
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Phone, "phone", "", "10 digit phone number")
	f.StringVar(&in.Password, "password", "", "password (min 6 characters)")
	f.StringVar(&in.Address, "address", "", "street address")
	f.StringVar(&in.Landmark, "landmark", "", "nearby landmark")
	return c
}

func (cmd *command) loginCmd() *cobra.Command {
	var id, password string
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in with email or phone",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := cmd.c.Login(c.Context(), id, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.out, "Logged in as %s.\n", res.User.Name)
			return nil
		},
	}
	c.Flags().StringVar(&id, "id", "", "email or phone")
	c.Flags().StringVar(&password, "password", "", "password")
	return c
}

func (cmd *command) me(ctx context.Context) error {
	p, err := cmd.c.Me(ctx)
	if err != nil {
		return err
	}
	return renderProfile(cmd.out, p)
}

func (cmd *command) boardCmd() *cobra.Command {
	var page, limit int
	var near string
	c := &cobra.Command{
		Use:   "board",
		Short: "Watch the priority board (refreshes every 15s)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts := client.ListOptions{Sort: client.SortSupported, Page: page, Limit: limit}
			if near != "" {
				n, err := parseNear(near)
				if err != nil {
					return err
				}
				opts.Near = n
			}
			client.NewBoard(cmd.c, opts).Run(c.Context(), cmd.renderBoard("Priority board"))
			return nil
		},
	}
	c.Flags().IntVar(&page, "page", 1, "page number")
	c.Flags().IntVar(&limit, "limit", 20, "issues per page")
	c.Flags().StringVar(&near, "near", "", "lng,lat,radiusKm to restrict to an area")
	return c
}

func (cmd *command) rankedCmd(name, short, sort string) *cobra.Command {
	var n int
	var watch bool
	c := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			board := client.NewBoard(cmd.c, client.ListOptions{Sort: sort, Limit: n})
			if watch {
				board.Run(c.Context(), cmd.renderBoard(short))
				return nil
			}
			issues, err := board.Fetch(c.Context())
			if err != nil {
				return err
			}
			return renderIssues(cmd.out, issues)
		},
	}
	c.Flags().IntVarP(&n, "limit", "n", 10, "number of issues")
	c.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing every 15s")
	return c
}

func (cmd *command) renderBoard(title string) func([]client.Issue, error) {
	return func(issues []client.Issue, err error) {
		fmt.Fprint(cmd.out, "\033[H\033[2J")
		fmt.Fprintf(cmd.out, "%s (Ctrl-C to quit)\n\n", title)
		if err != nil {
			fmt.Fprintf(cmd.out, "refresh failed: %v\n", err)
			return
		}
		if err := renderIssues(cmd.out, issues); err != nil {
			cmd.logger.Error().Err(err).Str("board", title).Msg("rendering board")
		}
	}
}

func (cmd *command) voteCmd(name, short string, action func(context.Context, string) (*client.UpvoteState, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <issue-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			state, err := action(c.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.out, "%s: %d upvotes (upvoted by you: %t)\n", args[0], state.UpvoteCount, state.HasUpvoted)
			return nil
		},
	}
}

func (cmd *command) reportCmd() *cobra.Command {
	var in client.NewIssue
	var lng, lat float64
	var tags, images []string
	c := &cobra.Command{
		Use:   "report",
		Short: "Report a new issue, uploading any images first",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			in.Reporter = cmd.c.Session().Name
			in.Location = client.Point(lng, lat)
			in.Tags = tags

			if len(images) > 0 {
				uploaded, err := cmd.c.UploadImages(c.Context(), images...)
				if err != nil {
					return fmt.Errorf("uploading images: %w", err)
				}
				for _, img := range uploaded {
					in.Images = append(in.Images, img.URL)
				}
			}

			issue, err := cmd.c.CreateIssue(c.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.out, "Reported %s (%s).\n", issue.ID, issue.Title)
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&in.Title, "title", "", "short title")
	f.StringVar(&in.Description, "description", "", "what is wrong")
	f.StringVar(&in.Priority, "priority", "medium", "low, medium or high")
	f.StringVar(&in.ConcernAuthority, "authority", "", "authority responsible")
	f.StringVar(&in.Colony, "colony", "", "colony or neighbourhood")
	f.StringVar(&in.Pincode, "pincode", "", "postal code")
	f.Float64Var(&lng, "lng", 0, "longitude")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.StringSliceVar(&tags, "tags", nil, "comma separated tags")
	f.StringSliceVar(&images, "images", nil, "image files to upload (up to 3)")
	return c
}

func parseNear(s string) (*client.Near, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("near must be lng,lat,radiusKm, got %q", s)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("near: %q is not a number", p)
		}
		vals[i] = v
	}
	return &client.Near{Longitude: vals[0], Latitude: vals[1], RadiusKm: vals[2]}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
