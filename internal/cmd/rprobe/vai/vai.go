// Package vai implements `rprobe vai`, snapshotting and querying the
// SQLite cache rancher's VAI subsystem keeps in every pod.
package vai

import (
	"github.com/spf13/cobra"
)

func NewCmdVai() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vai",
		Short: "Snapshot and inspect the VAI informer object cache",
		Long: `The VAI caching subsystem keeps a SQLite database,
informer_object_cache.db, inside every rancher pod. These commands
copy it out, snapshot it with VACUUM INTO and query the snapshots
offline.`,
	}

	cmd.AddCommand(NewCmdVaiDump().CobraCmd)
	cmd.AddCommand(NewCmdVaiVacuum().CobraCmd)
	cmd.AddCommand(NewCmdVaiQuery().CobraCmd)

	return cmd
}
