package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchpath/injector"
	"github.com/launchpath/injector/graph"
)

var graphFormat string

var graphCmd = &cobra.Command{
	Use:   "graph INTERFACE",
	Short: "Render the dependency graph of a selection",
	Long: `Solve for an interface and render the resulting dependency graph.

Formats:
  text  indented tree (default)
  dot   Graphviz DOT, e.g. launchpath graph URI -o dot | dot -Tsvg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := solveOptions()
		if err != nil {
			return err
		}
		feeds, err := loadFeeds()
		if err != nil {
			return err
		}

		res, err := injector.Resolve(requirement(args[0]), feeds, opts...)
		if err != nil {
			fmt.Fprint(os.Stderr, err.Error())
			os.Exit(1)
		}

		rg, err := graph.Build(res)
		if err != nil {
			return err
		}
		switch graphFormat {
		case "dot":
			return rg.DOT(os.Stdout)
		case "text":
			return rg.Text(os.Stdout)
		default:
			return fmt.Errorf("unknown format %q: want text or dot", graphFormat)
		}
	},
}

func init() {
	graphCmd.Flags().StringVarP(&graphFormat, "output", "o", "text", "output format (text or dot)")
}
