package root

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/moddiff"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/portcheck"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/steve"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/testplan"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/vai"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/version"
	"github.com/brudnak/rancher-test-scripts/internal/flag"
)

func NewRootCommand() *cobra.Command {
	var namespace string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "rprobe",
		Short: "rprobe probes a running Rancher deployment",
		Long: `rprobe bundles the manual probes run against a Rancher deployment
under test: an in-pod TCP port check, a go.mod dependency diff, VAI
cache snapshots, steve API query semantics verification and a
test-plan generator.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	flag.StringVar(rootCmd.PersistentFlags(), &namespace, common.FlagNameNamespace, common.EnvNamespace, "cattle-system", common.FlagDescNamespace)
	rootCmd.PersistentFlags().String(common.FlagNameContext, "", common.FlagDescContext)
	rootCmd.PersistentFlags().String(common.FlagNameKubeconfig, "", common.FlagDescKubeconfig)
	rootCmd.PersistentFlags().BoolVar(&verbose, common.FlagNameVerbose, false, common.FlagDescVerbose)

	rootCmd.AddCommand(portcheck.NewCmdPortCheck().CobraCmd)
	rootCmd.AddCommand(moddiff.NewCmdModDiff().CobraCmd)
	rootCmd.AddCommand(vai.NewCmdVai())
	rootCmd.AddCommand(steve.NewCmdSteve())
	rootCmd.AddCommand(testplan.NewCmdTestPlan().CobraCmd)
	rootCmd.AddCommand(version.NewCmdVersion().CobraCmd)

	return rootCmd
}
