// Package moddiff implements `rprobe moddiff`, the go.mod dependency
// comparison between two components of a deployment.
package moddiff

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/moddiff"
)

type ModDiffFlags struct {
	output         string
	mismatchOnly   bool
	failOnMismatch bool
	directOnly     bool
	timeout        time.Duration
}

type CmdModDiff struct {
	CobraCmd *cobra.Command
	Flags    ModDiffFlags

	left  string
	right string
}

func NewCmdModDiff() *CmdModDiff {
	cmd := &CmdModDiff{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "moddiff <left go.mod> <right go.mod>",
		Short: "Compare the dependency versions of two go.mod files",
		Long: `Fetches two go.mod files, from local paths or raw URLs, applies their
replace directives and reports for every dependency of either side
whether the effective versions match.`,
		Example: `rprobe moddiff https://raw.githubusercontent.com/rancher/rancher/release/v2.9/go.mod \
    https://raw.githubusercontent.com/rancher/steve/main/go.mod --mismatch-only`,
	}, cmd)
	cmd.AddFlags()
	return cmd
}

func (cmd *CmdModDiff) AddFlags() {
	flags := cmd.CobraCmd.Flags()
	flags.StringVar(&cmd.Flags.output, common.FlagNameOutput, "", "Also write the report to this file")
	flags.BoolVar(&cmd.Flags.mismatchOnly, common.FlagNameMismatchOnly, false, common.FlagDescMismatchOnly)
	flags.BoolVar(&cmd.Flags.failOnMismatch, common.FlagNameFailOnMismatch, false, common.FlagDescFailOnMismatch)
	flags.BoolVar(&cmd.Flags.directOnly, common.FlagNameDirectOnly, false, common.FlagDescDirectOnly)
	flags.DurationVar(&cmd.Flags.timeout, common.FlagNameTimeout, time.Minute, "Overall timeout for fetching the go.mod files")
}

func (cmd *CmdModDiff) NewClient(cobraCommand *cobra.Command, args []string) {}

func (cmd *CmdModDiff) ValidateInput(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("moddiff needs exactly two go.mod sources, got %d", len(args))
	}
	for _, source := range args {
		if strings.TrimSpace(source) == "" {
			return fmt.Errorf("a go.mod source must not be empty")
		}
	}
	cmd.left, cmd.right = args[0], args[1]
	return nil
}

func (cmd *CmdModDiff) InputToOptions() {}

func (cmd *CmdModDiff) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Flags.timeout)
	defer cancel()

	left, err := moddiff.Load(ctx, cmd.left)
	if err != nil {
		return err
	}
	right, err := moddiff.Load(ctx, cmd.right)
	if err != nil {
		return err
	}

	diff := moddiff.Compare(left, right, cmd.Flags.directOnly)
	if err := diff.Render(os.Stdout, cmd.Flags.mismatchOnly); err != nil {
		return err
	}
	if cmd.Flags.output != "" {
		file, err := os.Create(cmd.Flags.output)
		if err != nil {
			return fmt.Errorf("unable to write report to %q: %w", cmd.Flags.output, err)
		}
		if err := diff.Render(file, cmd.Flags.mismatchOnly); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Println("Report written to", cmd.Flags.output)
	}

	if cmd.Flags.failOnMismatch && diff.Count(moddiff.Mismatch) > 0 {
		return fmt.Errorf("%d dependency versions differ between %s and %s", diff.Count(moddiff.Mismatch), diff.Left, diff.Right)
	}
	return nil
}
