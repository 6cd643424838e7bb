// Package testplan implements `rprobe testplan`, the Markdown
// test-plan skeleton generator.
package testplan

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/testplan"
)

type TestPlanFlags struct {
	titlesFile string
	planTitle  string
	output     string
	force      bool
}

type CmdTestPlan struct {
	CobraCmd *cobra.Command
	Flags    TestPlanFlags

	plan *testplan.Plan
}

func NewCmdTestPlan() *CmdTestPlan {
	cmd := &CmdTestPlan{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "testplan [test title ...]",
		Short: "Generate a Markdown test-plan skeleton",
		Long: `Generates a Markdown file with a results table and one expandable
section per test, ready to be filled in during a manual test run.
Titles come from the arguments, or from a file with one title per
line (or a YAML list).`,
		Example: `rprobe testplan --plan-title "v2.9.2 upgrade" "Port check passes" "VAI cache intact"`,
	}, cmd)
	cmd.AddFlags()
	return cmd
}

func (cmd *CmdTestPlan) AddFlags() {
	flags := cmd.CobraCmd.Flags()
	flags.StringVar(&cmd.Flags.titlesFile, common.FlagNameTitlesFile, "", "Read test titles from this file, one per line; # comments and blank lines are skipped")
	flags.StringVar(&cmd.Flags.planTitle, common.FlagNamePlanTitle, "Test plan", "The H1 title of the generated plan")
	flags.StringVar(&cmd.Flags.output, common.FlagNameOutput, "test-plan.md", "The file to generate")
	flags.BoolVar(&cmd.Flags.force, common.FlagNameForce, false, common.FlagDescForce)
}

func (cmd *CmdTestPlan) NewClient(cobraCommand *cobra.Command, args []string) {}

func (cmd *CmdTestPlan) ValidateInput(args []string) error {
	titles := append([]string{}, args...)
	if cmd.Flags.titlesFile != "" {
		loaded, err := testplan.LoadTitles(cmd.Flags.titlesFile)
		if err != nil {
			return err
		}
		titles = append(titles, loaded...)
	}

	plan := &testplan.Plan{
		Title:     cmd.Flags.planTitle,
		Tests:     titles,
		Generated: time.Now(),
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	cmd.plan = plan
	return nil
}

func (cmd *CmdTestPlan) InputToOptions() {}

func (cmd *CmdTestPlan) Run() error {
	if err := cmd.plan.WriteFile(cmd.Flags.output, cmd.Flags.force); err != nil {
		return err
	}
	fmt.Printf("Test plan with %d tests written to %s\n", len(cmd.plan.Tests), cmd.Flags.output)
	return nil
}
