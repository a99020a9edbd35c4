package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchpath/injector"
	"github.com/launchpath/injector/selections"
)

var outputPath string

var selectCmd = &cobra.Command{
	Use:   "select INTERFACE",
	Short: "Select implementations for an interface and its dependencies",
	Long: `Select one implementation per needed interface and print the result.

On success the chosen set is printed, or written as a selections
document with --xml. On failure the exit status is 1 and an explanation
of what could not be resolved is printed instead.

Examples:
  launchpath select https://example.com/app
  launchpath select https://example.com/app --command test
  launchpath select https://example.com/app --restrict https://example.com/lib=..!2
  launchpath select https://example.com/app --xml app.selections.xml`,
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

		if outputPath != "" {
			doc, err := selections.Build(res)
			if err != nil {
				return err
			}
			return doc.WriteFile(outputPath)
		}

		for _, role := range res.Roles() {
			sel := res.Selection(role)
			fmt.Printf("%s: %s\n", sel.Role, sel.Impl)
		}
		return nil
	},
}

func init() {
	selectCmd.Flags().StringVar(&outputPath, "xml", "", "write a selections document to this path")
}
