// Package steve implements `rprobe steve`, verification of the steve
// API query semantics against a live rancher server.
package steve

import (
	"github.com/spf13/cobra"
)

func NewCmdSteve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steve",
		Short: "Exercise the rancher steve API",
		Long: `The steve API serves Kubernetes resources under /v1 with extended
filter, sort, limit and projectsornamespaces query parameters. These
commands verify that those parameters behave as documented.`,
	}

	cmd.AddCommand(NewCmdSteveCheck().CobraCmd)

	return cmd
}
