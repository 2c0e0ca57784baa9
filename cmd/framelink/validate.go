package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/atlanticdynamic/framelink/internal/config"
	"github.com/atlanticdynamic/framelink/internal/fancy"
	"github.com/urfave/cli/v3"
)

var validateCmd = &cli.Command{
	Name:      "validate",
	Aliases:   []string{"lint"},
	Usage:     "Validate one or more scenario files",
	ArgsUsage: "<scenario.toml>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show a tree view of each valid scenario",
		},
	},
	Suggest: true,
	Action:  validateAction,
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("scenario file path required", 1)
	}

	out := cmd.Root().Writer
	invalid := 0
	for _, path := range paths {
		s, err := config.Load(path)
		if err != nil {
			invalid++
			fmt.Fprintf(out, "%s %s\n", fancy.ErrorText("invalid:"), fancy.PathText(path))
			for _, line := range errorLines(err) {
				fmt.Fprintf(out, "  - %s\n", line)
			}
			continue
		}

		fmt.Fprintf(out, "Scenario %s is valid\n", fancy.PathText(path))
		if cmd.Bool("tree") {
			fmt.Fprintln(out, s)
			continue
		}
		renderScenarioSummary(out, s)
	}

	if invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d scenario files are invalid", invalid, len(paths)), 1)
	}
	return nil
}

// errorLines flattens joined validation errors into one line each.
func errorLines(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, errorLines(e)...)
		}
		return lines
	}
	return []string{err.Error()}
}

func renderScenarioSummary(out io.Writer, s *config.Scenario) {
	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("- Name: %s\n", s.Name))
	summary.WriteString(fmt.Sprintf("- Version: %s\n", s.Version))
	summary.WriteString(fmt.Sprintf("- Windows: %d\n", len(s.Windows)))
	summary.WriteString(fmt.Sprintf("- Hosts: %d\n", len(s.Hosts())))
	summary.WriteString(fmt.Sprintf("- Child: %s in %s\n", s.Child.Tag, s.Child.Window))
	summary.WriteString(fmt.Sprintf("- Steps: %d\n", len(s.Steps)))
	summary.WriteString("\nUse --tree for a more detailed view of the scenario.")
	fmt.Fprintln(out, summary.String())
}
