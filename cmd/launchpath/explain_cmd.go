package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/launchpath/injector"
	"github.com/launchpath/injector/model"
)

var explainCmd = &cobra.Command{
	Use:   "explain INTERFACE [ROLE]",
	Short: "Explain how each interface would resolve",
	Long: `Run a closest-match solve and report, per interface, which
implementation would be chosen or why every candidate was ruled out.
With a second argument only that interface's role is explained.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := solveOptions()
		if err != nil {
			return err
		}
		feeds, err := loadFeeds()
		if err != nil {
			return err
		}

		res, err := injector.SolveClosest(requirement(args[0]), feeds, opts...)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			fmt.Print(injector.Explain(res, model.Role{Interface: args[1], Source: source}))
			return nil
		}
		for _, role := range res.Roles() {
			fmt.Print(injector.Explain(res, role))
		}
		return nil
	},
}
