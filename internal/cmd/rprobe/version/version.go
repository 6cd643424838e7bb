package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/version"
)

type CmdVersion struct {
	CobraCmd *cobra.Command
}

func NewCmdVersion() *CmdVersion {
	cmd := &CmdVersion{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "version",
		Short: "Print the rprobe version",
	}, cmd)
	return cmd
}

func (cmd *CmdVersion) NewClient(cobraCommand *cobra.Command, args []string) {}

func (cmd *CmdVersion) ValidateInput(args []string) error { return nil }

func (cmd *CmdVersion) InputToOptions() {}

func (cmd *CmdVersion) Run() error {
	fmt.Printf("rprobe version %s\n", version.Version)
	return nil
}
