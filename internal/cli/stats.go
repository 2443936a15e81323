package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/bookshelf/internal/database/stats"
	"github.com/mrlokans/bookshelf/internal/entrypoint"
)

func newStatsCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(opts, func(svc *entrypoint.Services) error {
				d, err := svc.Stats.Dashboard(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(d)
				}
				return writeDashboard(cmd.OutOrStdout(), d)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func writeDashboard(w io.Writer, d *stats.Dashboard) error {
	var b strings.Builder

	fmt.Fprintf(&b, "books: %d (read %d, reading %d, to read %d)\n",
		d.Reading.TotalBooks, d.Reading.BooksRead, d.Reading.BooksReading, d.Reading.BooksToRead)
	fmt.Fprintf(&b, "reading time: %d min total, %.1f h per finished book\n",
		d.TotalReadingMinutes, d.AverageReadingHours)
	fmt.Fprintf(&b, "streak: %d day(s)\n", d.Streak)
	fmt.Fprintf(&b, "ratings: %d, average %.1f\n", d.Ratings.Total, d.Ratings.Average)

	b.WriteString("last months:")
	for _, m := range d.Monthly {
		fmt.Fprintf(&b, " %s=%d", m.Label, m.Count)
	}
	b.WriteString("\nthis week:")
	for _, day := range d.Weekly {
		fmt.Fprintf(&b, " %s=%d", day.Day, day.SessionCount)
	}
	b.WriteString("\n")

	if len(d.Genres) > 0 {
		b.WriteString("genres:")
		for _, g := range d.Genres {
			fmt.Fprintf(&b, " %s %d%%", g.Label, g.Percentage)
		}
		b.WriteString("\n")
	}
	for _, r := range d.LatestRatings {
		fmt.Fprintf(&b, "  %d/5  %s (%s)\n", r.Rating, r.Title, r.Authors)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
