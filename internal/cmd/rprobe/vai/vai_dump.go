package vai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/kube"
	kubeclient "github.com/brudnak/rancher-test-scripts/internal/kube/client"
	"github.com/brudnak/rancher-test-scripts/internal/report"
	"github.com/brudnak/rancher-test-scripts/internal/vai"
)

type VaiDumpFlags struct {
	podPrefix string
	exclude   []string
	container string
	cachePath string
	timeout   time.Duration
	interval  time.Duration
	output    string
	archive   bool
}

type CmdVaiDump struct {
	CobraCmd  *cobra.Command
	Flags     VaiDumpFlags
	client    *kubeclient.KubeClient
	clientErr error

	namespace string
}

func NewCmdVaiDump() *CmdVaiDump {
	cmd := &CmdVaiDump{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "dump",
		Short: "Copy the VAI cache out of every rancher pod and snapshot it",
		Long: `Copies informer_object_cache.db (and its -wal/-shm siblings when
present) out of each matching pod over the exec tar transport, then
runs VACUUM INTO on the copy to produce one consistent snapshot per
pod in the dump directory.`,
		Example: "rprobe vai dump --namespace cattle-system",
	}, cmd)
	cmd.AddFlags()
	return cmd
}

func (cmd *CmdVaiDump) AddFlags() {
	flags := cmd.CobraCmd.Flags()
	flags.StringVar(&cmd.Flags.podPrefix, common.FlagNamePodPrefix, "rancher-", common.FlagDescPodPrefix)
	flags.StringSliceVar(&cmd.Flags.exclude, common.FlagNameExclude, []string{"webhook"}, common.FlagDescExclude)
	flags.StringVar(&cmd.Flags.container, common.FlagNameContainer, "", common.FlagDescContainer)
	flags.StringVar(&cmd.Flags.cachePath, "cache-path", vai.CachePath, "Path of the cache database inside the container")
	flags.DurationVar(&cmd.Flags.timeout, common.FlagNameTimeout, 2*time.Minute, "How long to wait for the pods to be running")
	flags.DurationVar(&cmd.Flags.interval, common.FlagNameInterval, 2*time.Second, common.FlagDescInterval)
	flags.StringVar(&cmd.Flags.output, common.FlagNameOutput, "", "Name of the dump directory, defaulting to a timestamped one")
	flags.BoolVar(&cmd.Flags.archive, common.FlagNameArchive, false, common.FlagDescArchive)
}

func (cmd *CmdVaiDump) NewClient(cobraCommand *cobra.Command, args []string) {
	cli, err := kubeclient.NewClient(
		cobraCommand.Flag(common.FlagNameNamespace).Value.String(),
		cobraCommand.Flag(common.FlagNameContext).Value.String(),
		cobraCommand.Flag(common.FlagNameKubeconfig).Value.String(),
	)
	if err != nil {
		cmd.clientErr = fmt.Errorf("unable to reach the cluster: %s", err)
		return
	}
	cmd.client = cli
}

func (cmd *CmdVaiDump) ValidateInput(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("vai dump does not take arguments, got %q", args)
	}
	if cmd.clientErr != nil {
		return cmd.clientErr
	}
	if strings.TrimSpace(cmd.Flags.podPrefix) == "" {
		return fmt.Errorf("the pod prefix must not be empty")
	}
	if strings.TrimSpace(cmd.Flags.cachePath) == "" {
		return fmt.Errorf("the cache path must not be empty")
	}
	return nil
}

func (cmd *CmdVaiDump) InputToOptions() {
	cmd.namespace = cmd.client.GetNamespace()
}

func (cmd *CmdVaiDump) Run() error {
	ctx := context.Background()

	// the copy execs tar in the container, so wait for the pods to run
	pods, err := kubeclient.WaitForPodsByPrefixStatus(ctx, cmd.client.GetKubeClient(), cmd.namespace, cmd.Flags.podPrefix, cmd.Flags.exclude, corev1.PodRunning, cmd.Flags.timeout, cmd.Flags.interval)
	if err != nil {
		return fmt.Errorf("no running pods matched prefix %q in namespace %s: %s", cmd.Flags.podPrefix, cmd.namespace, err)
	}

	logDir, err := report.NewLogDir("rprobe-vai", cmd.Flags.output)
	if err != nil {
		return err
	}

	tally := report.NewTally()
	for _, pod := range pods {
		snapshot, err := cmd.dumpPod(ctx, pod.Name, logDir.Path)
		if err != nil {
			tally.Error(pod.Name, err)
			fmt.Printf("%s: dump failed: %s\n", pod.Name, err)
			continue
		}
		tally.Pass(pod.Name, fmt.Sprintf("snapshot %s", filepath.Base(snapshot)))
		fmt.Printf("%s: snapshot written to %s\n", pod.Name, snapshot)
	}

	if _, err := logDir.WriteSummary(tally); err != nil {
		return err
	}
	if cmd.Flags.archive {
		archivePath, err := logDir.Archive()
		if err != nil {
			return err
		}
		fmt.Println("Archive written to", archivePath)
	}
	fmt.Println(tally.Summary())

	if !tally.Succeeded() {
		return fmt.Errorf("failed to snapshot %d of %d pods", tally.Count(report.Error), tally.Total())
	}
	return nil
}

// dumpPod copies the cache and its journal siblings next to each
// other so the vacuum folds pending writes in, then snapshots and
// removes the raw copies.
func (cmd *CmdVaiDump) dumpPod(ctx context.Context, podName string, dir string) (string, error) {
	raw := filepath.Join(dir, podName+".cache.db")
	if err := kube.CopyFileFromPod(ctx, cmd.client.GetKubeClient(), cmd.client.GetRestConfig(), cmd.namespace, podName, cmd.Flags.container, cmd.Flags.cachePath, raw); err != nil {
		return "", err
	}
	for i, sibling := range vai.Siblings(cmd.Flags.cachePath) {
		local := vai.Siblings(raw)[i]
		if err := kube.CopyFileFromPod(ctx, cmd.client.GetKubeClient(), cmd.client.GetRestConfig(), cmd.namespace, podName, cmd.Flags.container, sibling, local); err != nil {
			// journal siblings only exist while a write is in flight
			slog.Debug("sibling not copied", "pod", podName, "file", sibling, "error", err)
		}
	}

	snapshot := filepath.Join(dir, podName+".db")
	if err := vai.Vacuum(ctx, raw, snapshot); err != nil {
		return "", err
	}
	os.Remove(raw)
	for _, local := range vai.Siblings(raw) {
		os.Remove(local)
	}
	return snapshot, nil
}
