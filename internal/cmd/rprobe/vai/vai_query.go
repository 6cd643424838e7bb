package vai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/vai"
)

type VaiQueryFlags struct {
	sql string
}

type CmdVaiQuery struct {
	CobraCmd *cobra.Command
	Flags    VaiQueryFlags

	snapshot string
}

func NewCmdVaiQuery() *CmdVaiQuery {
	cmd := &CmdVaiQuery{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "query <snapshot.db>",
		Short: "Query a cache snapshot",
		Long: `Without --sql, lists the tables of the snapshot with their row
counts. With --sql, runs one SELECT statement and prints the rows as
an aligned table.`,
		Example: `rprobe vai query rancher-0.db --sql 'SELECT key FROM "_v1_ConfigMap_fields" LIMIT 10'`,
	}, cmd)
	cmd.AddFlags()
	return cmd
}

func (cmd *CmdVaiQuery) AddFlags() {
	cmd.CobraCmd.Flags().StringVar(&cmd.Flags.sql, common.FlagNameSQL, "", "A single SELECT statement to run against the snapshot")
}

func (cmd *CmdVaiQuery) NewClient(cobraCommand *cobra.Command, args []string) {}

func (cmd *CmdVaiQuery) ValidateInput(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("query needs the snapshot database, got %d arguments", len(args))
	}
	cmd.snapshot = args[0]
	if sql := strings.TrimSpace(cmd.Flags.sql); sql != "" {
		if !strings.EqualFold(strings.Fields(sql)[0], "select") {
			return fmt.Errorf("only SELECT statements are allowed, got %q", sql)
		}
	}
	return nil
}

func (cmd *CmdVaiQuery) InputToOptions() {}

func (cmd *CmdVaiQuery) Run() error {
	ctx := context.Background()

	if cmd.Flags.sql == "" {
		counts, err := vai.Tables(ctx, cmd.snapshot)
		if err != nil {
			return err
		}
		return vai.RenderTables(os.Stdout, counts)
	}

	result, err := vai.Query(ctx, cmd.snapshot, cmd.Flags.sql)
	if err != nil {
		return err
	}
	return result.Render(os.Stdout)
}
