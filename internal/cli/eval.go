package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/spf13/cobra"
)

func newEvalCommand(flags *globalFlags) *cobra.Command {
	var (
		sets []string
		save bool
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "eval KEY...",
		Short: "Evaluate cells or ranges and print their values.",
		Example: `  sparsegrid eval --set 0,0,0="6 * 7" 0,0,0
  sparsegrid eval -s sales.hcl "0:12,3,0"
  sparsegrid eval -s sales.hcl --raw "0:12,3,0"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]coord.Key, len(args))
			for i, raw := range args {
				key, err := coord.ParseKey(raw)
				if err != nil {
					return usageError(err)
				}
				keys[i] = key
			}
			writes, err := parseSets(sets)
			if err != nil {
				return usageError(err)
			}

			cfg, err := buildConfig(cmd, flags, nil)
			if err != nil {
				return err
			}
			if save && cfg.SheetPath == "" {
				return &ExitError{Code: 2, Message: "--save needs a sheet file"}
			}
			a, err := newApp(cmd, cfg)
			if err != nil {
				return err
			}
			ctx := a.Context()

			failed := 0
			err = a.Sheet().Do(func(g *grid.Grid) error {
				for _, w := range writes {
					if err := g.Write(ctx, w.coord, w.text); err != nil {
						return err
					}
				}
				for _, key := range keys {
					read := readKey
					if raw {
						read = readText
					}
					text, err := read(ctx, g, key)
					if err != nil {
						failed++
						text = "error: " + err.Error()
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, text)
				}
				return nil
			})
			if err != nil {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			if save {
				if err := a.Sheet().Save(ctx); err != nil {
					return err
				}
			}
			if failed > 0 {
				return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d keys failed to evaluate", failed, len(keys))}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, `Write a cell before evaluating, as KEY=TEXT (e.g. 0,1,0="S(0, 0, 0) + 1"). Repeatable.`)
	cmd.Flags().BoolVar(&save, "save", false, "Write the sheet file back after applying --set.")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the cells' source text instead of evaluating them.")
	return cmd
}

type cellWrite struct {
	coord coord.Coordinate
	text  string
}

// parseSets splits KEY=TEXT pairs on the first "=".
func parseSets(sets []string) ([]cellWrite, error) {
	out := make([]cellWrite, 0, len(sets))
	for _, s := range sets {
		rawKey, text, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected KEY=TEXT", s)
		}
		c, err := coord.ParseCoordinate(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		out = append(out, cellWrite{coord: c, text: text})
	}
	return out, nil
}

func readKey(ctx context.Context, g *grid.Grid, key coord.Key) (string, error) {
	v, err := g.ReadKey(ctx, key)
	if err != nil {
		return "", err
	}
	if !v.IsRange() {
		return expr.Text(v.Scalar), nil
	}
	tuple, err := v.Block.Value()
	if err != nil {
		return "", err
	}
	return expr.Text(tuple), nil
}

func readText(_ context.Context, g *grid.Grid, key coord.Key) (string, error) {
	v, _, err := g.TextKey(key)
	if err != nil {
		return "", err
	}
	return expr.Text(v), nil
}
