package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

func newBookCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage books in the library",
	}

	cmd.AddCommand(
		newBookAddCmd(opts),
		newBookListCmd(opts),
		newBookStatusCmd(opts),
	)
	return cmd
}

func newBookAddCmd(opts *options) *cobra.Command {
	var in books.NewBook

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a book to the backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			return withServices(opts, func(svc *entrypoint.Services) error {
				book, err := svc.Books.CreateBook(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "book %d added: %s\n", book.ID, book.Title)
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&in.Authors, "author", nil, "author name (repeatable)")
	cmd.Flags().StringSliceVar(&in.Genres, "genre", nil, "genre name (repeatable)")
	cmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	return cmd
}

func newBookListCmd(opts *options) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by reading status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := make([]entities.Status, 0, len(statuses))
			for _, raw := range statuses {
				st, err := entities.ParseStatus(raw)
				if err != nil {
					return err
				}
				filter = append(filter, st)
			}

			return withServices(opts, func(svc *entrypoint.Services) error {
				list, err := svc.Books.ListBooks(cmd.Context(), filter...)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tAUTHORS\tSTATUS")
				for _, b := range list {
					st := entities.StatusToRead
					if b.Status != nil {
						st = b.Status.Status
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, b.Title, b.AuthorNames(), st)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "to_read, reading or completed (repeatable)")
	return cmd
}

func newBookStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <book-id> <to_read|reading|completed>",
		Short: "Move a book through its reading lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			to, err := entities.ParseStatus(args[1])
			if err != nil {
				return err
			}

			return withServices(opts, func(svc *entrypoint.Services) error {
				updated, err := svc.Coordinator.SetStatus(cmd.Context(), uint(id), to)
				if err != nil {
					return err
				}
				if !updated {
					return books.ErrBookNotFound
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "book %d is now %s\n", id, to)
				return err
			})
		},
	}
}
