package vai

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/vai"
)

type CmdVaiVacuum struct {
	CobraCmd *cobra.Command

	src string
	dst string
}

func NewCmdVaiVacuum() *CmdVaiVacuum {
	cmd := &CmdVaiVacuum{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:     "vacuum <source.db> <destination.db>",
		Short:   "Snapshot a copied cache database with VACUUM INTO",
		Long:    "Runs a single VACUUM INTO statement against an already copied cache database, producing a consistent snapshot.",
		Example: "rprobe vai vacuum informer_object_cache.db snapshot.db",
	}, cmd)
	return cmd
}

func (cmd *CmdVaiVacuum) NewClient(cobraCommand *cobra.Command, args []string) {}

func (cmd *CmdVaiVacuum) ValidateInput(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("vacuum needs a source and a destination database, got %d arguments", len(args))
	}
	cmd.src, cmd.dst = args[0], args[1]
	return nil
}

func (cmd *CmdVaiVacuum) InputToOptions() {}

func (cmd *CmdVaiVacuum) Run() error {
	if err := vai.Vacuum(context.Background(), cmd.src, cmd.dst); err != nil {
		return err
	}
	fmt.Println("Snapshot written to", cmd.dst)
	return nil
}
