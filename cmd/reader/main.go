package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilawngbayan/storybooks/internal/common/auth"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/navigator"
	"github.com/ilawngbayan/storybooks/pkg/config"
	"github.com/ilawngbayan/storybooks/pkg/readerclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiURL, token string

	root := &cobra.Command{
		Use:           "storybook-reader",
		Short:         "Terminal client for the storybook reading service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "reading API base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("READER_TOKEN"), "bearer token (default $READER_TOKEN)")

	root.AddCommand(newTokenCmd())
	root.AddCommand(newReadCmd(&apiURL, &token))
	root.AddCommand(newProgressCmd(&apiURL, &token))
	return root
}

func newTokenCmd() *cobra.Command {
	var (
		userID uint
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token --user-id <id>",
		Short: "Mint a token with the server's configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == 0 {
				return fmt.Errorf("--user-id is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenExpiry, cfg.Auth.Issuer)
			signed, err := tokens.GenerateToken(userID, role)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user-id", 0, "user id")
	cmd.Flags().StringVar(&role, "role", models.RoleStudent, "role: student|teacher|admin")
	return cmd
}

func newProgressCmd(apiURL, token *string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "List reading progress visible to the caller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := readerclient.New(*apiURL, *token).ListProgress(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no progress")
				return nil
			}
			for _, p := range rows {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user=%d\tbook=%d\t%d%%\tpage=%d\ttime=%s\n",
					p.UserID, p.BookID, p.PercentComplete, p.CurrentPage, time.Duration(p.TotalReadingTime)*time.Second)
			}
			return nil
		},
	}
}

func newReadCmd(apiURL, token *string) *cobra.Command {
	var (
		bookID uint
		flip   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "read --book <id>",
		Short: "Read a book interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bookID == 0 {
				return fmt.Errorf("--book is required")
			}
			if !cmd.Flags().Changed("flip") {
				if cfg, err := config.Load(); err == nil {
					flip = cfg.Reading.FlipDuration
				}
			}
			var (
				mu       sync.Mutex
				warnings []string
			)
			reader := readerclient.NewReader(readerclient.New(*apiURL, *token),
				readerclient.WithFlipDuration(flip),
				readerclient.OnError(func(op string, err error) {
					mu.Lock()
					defer mu.Unlock()
					warnings = append(warnings, fmt.Sprintf("warning: %s failed: %v", op, err))
				}),
			)

			ctx := cmd.Context()
			if err := reader.Open(ctx, bookID); err != nil {
				return err
			}

			progress, err := runReader(ctx, reader, cmd.InOrStdin(), cmd.OutOrStdout())

			mu.Lock()
			for _, w := range warnings {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), w)
			}
			mu.Unlock()

			if progress != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("book complete: %d%%", progress.PercentComplete)))
			}
			return err
		},
	}
	cmd.Flags().UintVar(&bookID, "book", 0, "book id")
	cmd.Flags().DurationVar(&flip, "flip", navigator.DefaultFlipDuration, "page flip debounce")
	return cmd
}
