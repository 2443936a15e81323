package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

var errNoActiveSession = errors.New("no active reading session")

func newSessionCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Track reading sessions",
	}

	cmd.AddCommand(
		newSessionStartCmd(opts),
		newSessionStatusCmd(opts),
		newSessionStopCmd(opts),
		newSessionDiscardCmd(opts),
		newSessionListCmd(opts),
	)
	return cmd
}

func newSessionStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a reading session, or resume the one already running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(opts, func(svc *entrypoint.Services) error {
				ctx := cmd.Context()
				_, running, err := svc.Sessions.ActiveSessionID(ctx)
				if err != nil {
					return err
				}
				id, err := svc.Sessions.StartSession(ctx)
				if err != nil {
					return err
				}

				if running {
					elapsed, err := svc.Sessions.DurationToNow(ctx, id)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d already running for %s\n", id, formatSeconds(elapsed))
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d started\n", id)
				return err
			})
		},
	}
}

func newSessionStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(opts, func(svc *entrypoint.Services) error {
				ctx := cmd.Context()
				id, ok, err := svc.Sessions.ActiveSessionID(ctx)
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return err
				}

				elapsed, err := svc.Sessions.DurationToNow(ctx, id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d running for %s\n", id, formatSeconds(elapsed))
				return err
			})
		},
	}
}

func newSessionStopCmd(opts *options) *cobra.Command {
	var (
		bookID    uint
		completed bool
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "End the running session, optionally attributing it to a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if completed && bookID == 0 {
				return errors.New("--completed requires --book")
			}

			return withServices(opts, func(svc *entrypoint.Services) error {
				ctx := cmd.Context()
				id, ok, err := svc.Sessions.ActiveSessionID(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return errNoActiveSession
				}

				var duration int64
				if bookID != 0 {
					duration, err = svc.Sessions.FinishSession(ctx, id, bookID, completed)
				} else {
					duration, err = svc.Sessions.EndSession(ctx, id)
				}
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d ended after %s\n", id, formatSeconds(duration))
				return err
			})
		},
	}
	cmd.Flags().UintVar(&bookID, "book", 0, "book the session belongs to")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark the book as completed")
	return cmd
}

func newSessionDiscardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Delete the running session without keeping its time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(opts, func(svc *entrypoint.Services) error {
				ctx := cmd.Context()
				id, ok, err := svc.Sessions.ActiveSessionID(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return errNoActiveSession
				}
				if err := svc.Sessions.DeleteSession(ctx, id); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %d discarded\n", id)
				return err
			})
		},
	}
}

func newSessionListCmd(opts *options) *cobra.Command {
	var (
		bookID uint
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(opts, func(svc *entrypoint.Services) error {
				var filter *uint
				if bookID != 0 {
					filter = &bookID
				}
				list, err := svc.Sessions.ListSessions(cmd.Context(), filter, limit)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tBOOK\tSTARTED\tDURATION")
				for _, s := range list {
					book := "-"
					if s.BookID != nil {
						book = fmt.Sprint(*s.BookID)
					}
					duration := "running"
					if s.Duration != nil {
						duration = formatSeconds(*s.Duration)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, book, s.StartTime.Local().Format(time.DateTime), duration)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().UintVar(&bookID, "book", 0, "only sessions of this book")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions")
	return cmd
}

func formatSeconds(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
