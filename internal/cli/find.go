package cli

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/specialistvlad/sparsegrid/internal/search"
	"github.com/spf13/cobra"
)

var errNoMatch = errors.New("no match")

func newFindCommand(flags *globalFlags) *cobra.Command {
	var (
		from      string
		up        bool
		wholeWord bool
		matchCase bool
		regexp    bool
	)
	cmd := &cobra.Command{
		Use:   "find PATTERN",
		Short: "Print the next cell whose text matches PATTERN.",
		Long: `find walks the stored cells in coordinate order starting at --from,
wrapping around at the end, and prints the first cell whose text matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := coord.ParseCoordinate(from)
			if err != nil {
				return usageError(err)
			}
			opts := search.Options{Direction: search.Down, WholeWord: wholeWord, MatchCase: matchCase, Regexp: regexp}
			if up {
				opts.Direction = search.Up
			}

			cfg, err := buildConfig(cmd, flags, nil)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}

			return a.Sheet().Do(func(g *grid.Grid) error {
				found, ok, err := g.FindNextMatch(start, args[0], opts)
				if errors.Is(err, search.ErrInvalidPattern) {
					return usageError(err)
				}
				if err != nil {
					return err
				}
				if !ok {
					return &ExitError{Code: 1, Message: fmt.Sprintf("%s: %q", errNoMatch, args[0])}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", found, g.Text(found))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "0,0,0", "Coordinate to start searching at, included in the search.")
	f.BoolVar(&up, "up", false, "Search towards lower coordinates.")
	f.BoolVar(&wholeWord, "whole-word", false, "Match whole words only.")
	f.BoolVar(&matchCase, "match-case", false, "Match case exactly.")
	f.BoolVar(&regexp, "regexp", false, "Treat PATTERN as a regular expression.")
	return cmd
}
