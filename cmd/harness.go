package cmd

import (
	"context"
	"fmt"
	"github.com/aleph-zero/lifo/service/harness"
	"github.com/logrusorgru/aurora/v4"
	"github.com/spf13/cobra"
	"io"
	"os"
)

var harnessCmd = &cobra.Command{
	Use:   "harness [scenario.yaml...]",
	Short: "Run scripted stack scenarios",
	Long:  "Run push/pop/peek scenarios from YAML files, or the built-in scenarios when no file is given",
	Run: func(cmd *cobra.Command, args []string) {
		scenarios := harness.Builtins()
		if len(args) > 0 {
			scenarios = nil
			for _, path := range args {
				loaded, err := harness.LoadScenarios(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", path, err)
					os.Exit(1)
				}
				scenarios = append(scenarios, loaded...)
			}
		}

		if !runScenarios(context.Background(), harness.NewService(nil), scenarios, os.Stdout) {
			os.Exit(1)
		}
	},
}

func runScenarios(ctx context.Context, svc harness.Service, scenarios []harness.Scenario, out io.Writer) bool {
	ok := true
	for _, sc := range scenarios {
		report, err := svc.Run(ctx, sc)
		if err != nil {
			fmt.Fprintf(out, "%s %s: %s\n", aurora.Red("ERROR"), sc.Name, err)
			ok = false
			continue
		}
		if report.Passed {
			fmt.Fprintf(out, "%s %s (size=%d capacity=%d grows=%d)\n",
				aurora.Green("PASS"), report.Scenario, report.FinalSize, report.FinalCapacity, report.Grows)
			continue
		}
		ok = false
		fmt.Fprintf(out, "%s %s\n", aurora.Red("FAIL"), report.Scenario)
		for _, f := range report.Failures {
			fmt.Fprintf(out, "    step %d (%s): %s\n", f.Step, f.Op, f.Message)
		}
	}
	return ok
}

func init() {
	rootCmd.AddCommand(harnessCmd)
}
