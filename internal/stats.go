package internal

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/starford/chessboards/internal/ledger"
)

// Stats prints a frequency table for every trait recorded in the ledger.
func Stats(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	db, err := ledger.Open(app.config.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "items\t%d\n", total)
	for _, trait := range ledger.Traits() {
		counts, err := db.TraitCounts(trait)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "\n%s\tcount\tshare\n", trait)
		for _, c := range counts {
			fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", c.Value, c.Count, 100*float64(c.Count)/float64(total))
		}
	}
	return tw.Flush()
}
