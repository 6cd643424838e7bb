// Package portcheck implements `rprobe portcheck`, the in-pod TCP
// port probe. It scans the kernel socket tables of every rancher pod
// and verifies the target port against the selected expectation.
package portcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/flag"
	"github.com/brudnak/rancher-test-scripts/internal/kube"
	kubeclient "github.com/brudnak/rancher-test-scripts/internal/kube/client"
	"github.com/brudnak/rancher-test-scripts/internal/portscan"
	"github.com/brudnak/rancher-test-scripts/internal/report"
	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

type PortCheckFlags struct {
	port              int
	portHex           string
	mode              string
	podPrefix         string
	exclude           []string
	container         string
	useDebugContainer bool
	debugImage        string
	timeout           time.Duration
	interval          time.Duration
	output            string
	archive           bool
	dryRun            bool
}

type CmdPortCheck struct {
	CobraCmd  *cobra.Command
	Flags     PortCheckFlags
	client    *kubeclient.KubeClient
	clientErr error

	port      int
	mode      portscan.Mode
	namespace string
}

func NewCmdPortCheck() *CmdPortCheck {
	cmd := &CmdPortCheck{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "portcheck",
		Short: "Check whether a TCP port is listening inside the rancher pods",
		Long: `Scans /proc/net/tcp and /proc/net/tcp6 of every matching pod for a
listening socket on the target port and compares the result against
the selected mode: enabled expects every pod to listen, disabled
expects none to, check passes when at least one does.`,
		Example: "rprobe portcheck --port 6666 --mode disabled",
	}, cmd)
	cmd.AddFlags()
	return cmd
}

func (cmd *CmdPortCheck) AddFlags() {
	flags := cmd.CobraCmd.Flags()
	flag.IntVar(flags, &cmd.Flags.port, common.FlagNamePort, common.EnvPortToCheck, 0, "The TCP port to look for")
	flag.StringVar(flags, &cmd.Flags.portHex, common.FlagNamePortHex, common.EnvPortHex, "", "The TCP port to look for, as four uppercase hex digits")
	flags.StringVar(&cmd.Flags.mode, common.FlagNameMode, string(portscan.ModeCheck), "The expectation to verify [enabled, disabled, check]")
	flags.StringVar(&cmd.Flags.podPrefix, common.FlagNamePodPrefix, "rancher-", common.FlagDescPodPrefix)
	flags.StringSliceVar(&cmd.Flags.exclude, common.FlagNameExclude, []string{"webhook"}, common.FlagDescExclude)
	flags.StringVar(&cmd.Flags.container, common.FlagNameContainer, "", common.FlagDescContainer)
	flags.BoolVar(&cmd.Flags.useDebugContainer, common.FlagNameUseDebugContainer, false, "Scan through an ephemeral debug container instead of exec, for images without a shell")
	flags.StringVar(&cmd.Flags.debugImage, common.FlagNameDebugImage, "busybox", "The image the debug container runs")
	flags.DurationVar(&cmd.Flags.timeout, common.FlagNameTimeout, 2*time.Minute, "How long to wait for pods and debug containers")
	flags.DurationVar(&cmd.Flags.interval, common.FlagNameInterval, 2*time.Second, common.FlagDescInterval)
	flags.StringVar(&cmd.Flags.output, common.FlagNameOutput, "", "Name of the log directory, defaulting to a timestamped one")
	flags.BoolVar(&cmd.Flags.archive, common.FlagNameArchive, false, common.FlagDescArchive)
	flags.BoolVar(&cmd.Flags.dryRun, common.FlagNameDryRun, false, common.FlagDescDryRun)
}

func (cmd *CmdPortCheck) NewClient(cobraCommand *cobra.Command, args []string) {
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

func (cmd *CmdPortCheck) ValidateInput(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("portcheck does not take arguments, got %q", args)
	}
	if cmd.clientErr != nil {
		return cmd.clientErr
	}

	mode, err := portscan.ParseMode(cmd.Flags.mode)
	if err != nil {
		return err
	}
	cmd.mode = mode

	port := cmd.Flags.port
	if cmd.Flags.portHex != "" {
		hexPort, err := portscan.ParsePortHex(cmd.Flags.portHex)
		if err != nil {
			return err
		}
		// decimal wins when both are given, unless they disagree
		if port != 0 && port != hexPort {
			return fmt.Errorf("--port %d and --port-hex %s disagree", port, cmd.Flags.portHex)
		}
		if port == 0 {
			port = hexPort
		}
	}
	if port == 0 {
		return fmt.Errorf("a port is required, set --port or --port-hex")
	}
	if err := portscan.ValidatePort(port); err != nil {
		return err
	}
	cmd.port = port

	if strings.TrimSpace(cmd.Flags.podPrefix) == "" {
		return fmt.Errorf("the pod prefix must not be empty")
	}
	return nil
}

func (cmd *CmdPortCheck) InputToOptions() {
	cmd.namespace = cmd.client.GetNamespace()
}

func (cmd *CmdPortCheck) Run() error {
	ctx := context.Background()

	if cmd.Flags.dryRun {
		return cmd.dryRun(ctx)
	}

	pods, err := cmd.waitForPods(ctx)
	if err != nil {
		return err
	}

	logDir, err := report.NewLogDir("rprobe-portcheck", cmd.Flags.output)
	if err != nil {
		return err
	}

	tally := report.NewTally()
	var results []portscan.Result
	for _, pod := range pods {
		dump, err := cmd.scanPod(ctx, pod.Name)
		if err != nil {
			slog.Debug("pod scan failed", "pod", pod.Name, "error", err)
			tally.Error(pod.Name, err)
			results = append(results, portscan.Result{Pod: pod.Name, Err: err})
			fmt.Printf("%s: scan failed: %s\n", pod.Name, err)
			continue
		}
		if _, err := logDir.WriteFile(pod.Name+".log", dump); err != nil {
			return err
		}
		listening, detail := scanDetail(cmd.port, dump)
		results = append(results, portscan.Result{Pod: pod.Name, Listening: listening})
		tally.Pass(pod.Name, detail)
		fmt.Printf("%s: %s\n", pod.Name, detail)
	}

	ok, detail := portscan.Evaluate(cmd.mode, cmd.port, results)
	tally.Record(fmt.Sprintf("mode %s", cmd.mode), verdictOutcome(ok), detail)
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
	fmt.Println("Logs written to", logDir.Path)
	fmt.Println(detail)

	if !ok {
		return fmt.Errorf("port check failed in mode %s: %s", cmd.mode, detail)
	}
	return nil
}

func (cmd *CmdPortCheck) dryRun(ctx context.Context) error {
	pods, err := kubeclient.ListPodsByPrefix(ctx, cmd.client.GetKubeClient(), cmd.namespace, cmd.Flags.podPrefix, cmd.Flags.exclude)
	if err != nil {
		return err
	}
	if len(pods) == 0 {
		return fmt.Errorf("no pods matched prefix %q in namespace %s", cmd.Flags.podPrefix, cmd.namespace)
	}
	fmt.Printf("Would run %s in:\n", strings.Join(portscan.Command(), " "))
	for _, pod := range pods {
		fmt.Printf("  %s/%s\n", cmd.namespace, pod.Name)
	}
	return nil
}

// waitForPods polls until every matching pod is running, under a
// spinner on smart terminals.
func (cmd *CmdPortCheck) waitForPods(ctx context.Context) ([]corev1.Pod, error) {
	var pods []corev1.Pod
	retries := int(cmd.Flags.timeout / time.Second)
	err := utils.NewSpinner(fmt.Sprintf("Waiting for %s* pods in %s...", cmd.Flags.podPrefix, cmd.namespace), retries, func() error {
		listed, err := kubeclient.ListPodsByPrefix(ctx, cmd.client.GetKubeClient(), cmd.namespace, cmd.Flags.podPrefix, cmd.Flags.exclude)
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			return fmt.Errorf("no pods matched prefix %q in namespace %s", cmd.Flags.podPrefix, cmd.namespace)
		}
		for _, pod := range listed {
			if !kubeclient.IsPodRunning(&pod) {
				return fmt.Errorf("pod %s is %s, not running", pod.Name, pod.Status.Phase)
			}
			if !kubeclient.IsPodReady(&pod) {
				return fmt.Errorf("pod %s is not ready", pod.Name)
			}
		}
		pods = listed
		return nil
	})
	return pods, err
}

func (cmd *CmdPortCheck) scanPod(ctx context.Context, podName string) ([]byte, error) {
	if cmd.Flags.useDebugContainer {
		logs, err := kube.RunDebugContainer(ctx, cmd.client.GetKubeClient(), cmd.namespace, podName, cmd.Flags.debugImage, portscan.Command(), cmd.Flags.timeout, cmd.Flags.interval)
		if err != nil {
			return nil, err
		}
		return []byte(logs), nil
	}
	stdout, err := kube.ExecCommandInContainer(ctx, cmd.client.GetKubeClient(), cmd.client.GetRestConfig(), cmd.namespace, podName, cmd.Flags.container, portscan.Command())
	if err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func verdictOutcome(ok bool) report.Outcome {
	if ok {
		return report.Pass
	}
	return report.Fail
}

// scanDetail summarizes one pod's socket table dump. When the target
// port is closed, the ports that are listening are named so a
// misconfigured port number stands out in the logs.
func scanDetail(port int, dump []byte) (bool, string) {
	if portscan.ListensOn(dump, port) {
		return true, fmt.Sprintf("listening on port %d", port)
	}
	detail := fmt.Sprintf("not listening on port %d", port)
	if open := portscan.ListeningPorts(dump); len(open) > 0 {
		detail = fmt.Sprintf("%s, listening ports are %s", detail, formatPorts(open))
	}
	return false, detail
}

func formatPorts(ports []int) string {
	parts := make([]string, 0, len(ports))
	for _, port := range ports {
		parts = append(parts, strconv.Itoa(port))
	}
	return strings.Join(parts, ", ")
}
