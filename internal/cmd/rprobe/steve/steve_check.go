package steve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common"
	"github.com/brudnak/rancher-test-scripts/internal/kube"
	kubeclient "github.com/brudnak/rancher-test-scripts/internal/kube/client"
	"github.com/brudnak/rancher-test-scripts/internal/report"
	"github.com/brudnak/rancher-test-scripts/internal/steve"
	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

type SteveCheckFlags struct {
	server        string
	token         string
	insecure      bool
	portForward   bool
	localPort     int
	podPrefix     string
	suite         string
	autoMode      bool
	skipCleanup   bool
	strictCleanup bool
	timeout       time.Duration
	interval      time.Duration
	output        string
}

type CmdSteveCheck struct {
	CobraCmd  *cobra.Command
	Flags     SteveCheckFlags
	client    *kubeclient.KubeClient
	clientErr error

	steveClient *steve.Client
	checks      []steve.Check
	// confirm is the cleanup prompt, replaceable in tests
	confirm func(prompt string) bool
	// alive reports the port-forward's liveness, nil without one
	alive func() (bool, error)
}

func NewCmdSteveCheck() *CmdSteveCheck {
	cmd := &CmdSteveCheck{}
	cmd.CobraCmd = common.ConfigureCobraCommand(common.CmdDescription{
		Use:   "check",
		Short: "Verify the steve filter, sort, limit and projectsornamespaces semantics",
		Long: `Creates a known set of namespaces, ConfigMaps and Secrets, waits for
them to become visible through the steve endpoint, runs the built-in
table of query checks against them, and deletes the fixtures again
after a confirmation prompt.`,
		Example: "rprobe steve check --server https://rancher.example.com --token $RANCHER_TOKEN --auto-mode",
	}, cmd)
	cmd.AddFlags()
	cmd.confirm = confirmOnTerminal
	return cmd
}

func (cmd *CmdSteveCheck) AddFlags() {
	flags := cmd.CobraCmd.Flags()
	flags.StringVar(&cmd.Flags.server, common.FlagNameServer, "", common.FlagDescServer)
	flags.StringVar(&cmd.Flags.token, common.FlagNameToken, "", common.FlagDescToken)
	flags.BoolVar(&cmd.Flags.insecure, common.FlagNameInsecureSkipVerify, false, common.FlagDescInsecureSkipVerify)
	flags.BoolVar(&cmd.Flags.portForward, common.FlagNamePortForward, false, common.FlagDescPortForward)
	flags.IntVar(&cmd.Flags.localPort, common.FlagNameLocalPort, 8443, common.FlagDescLocalPort)
	flags.StringVar(&cmd.Flags.podPrefix, common.FlagNamePodPrefix, "rancher-", common.FlagDescPodPrefix)
	flags.StringVar(&cmd.Flags.suite, common.FlagNameSuite, "", "A YAML file with extra checks to run after the built-in ones")
	flags.BoolVar(&cmd.Flags.autoMode, common.FlagNameAutoMode, false, common.FlagDescAutoMode)
	flags.BoolVar(&cmd.Flags.skipCleanup, common.FlagNameSkipCleanup, false, common.FlagDescSkipCleanup)
	flags.BoolVar(&cmd.Flags.strictCleanup, common.FlagNameStrictCleanup, false, common.FlagDescStrictCleanup)
	flags.DurationVar(&cmd.Flags.timeout, common.FlagNameTimeout, 2*time.Minute, "How long to wait for the fixtures to become visible through steve")
	flags.DurationVar(&cmd.Flags.interval, common.FlagNameInterval, 2*time.Second, common.FlagDescInterval)
	flags.StringVar(&cmd.Flags.output, common.FlagNameOutput, "", "Name of the log directory, defaulting to a timestamped one")
}

func (cmd *CmdSteveCheck) NewClient(cobraCommand *cobra.Command, args []string) {
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

func (cmd *CmdSteveCheck) ValidateInput(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("steve check does not take arguments, got %q", args)
	}
	if cmd.Flags.server == "" && !cmd.Flags.portForward {
		return fmt.Errorf("a rancher server URL is required, set --server or --port-forward")
	}
	if cmd.Flags.server != "" && cmd.Flags.portForward {
		return fmt.Errorf("--server and --port-forward are mutually exclusive")
	}
	if cmd.Flags.portForward && (cmd.Flags.localPort < 1 || cmd.Flags.localPort > 65535) {
		return fmt.Errorf("local port %d is out of range", cmd.Flags.localPort)
	}
	if cmd.Flags.token == "" {
		return fmt.Errorf("a rancher API token is required, set --token")
	}
	if cmd.clientErr != nil {
		return cmd.clientErr
	}

	if cmd.Flags.server != "" {
		steveClient, err := steve.NewClient(cmd.Flags.server, cmd.Flags.token, cmd.Flags.insecure)
		if err != nil {
			return err
		}
		cmd.steveClient = steveClient
	}

	if cmd.Flags.suite != "" {
		checks, err := steve.LoadSuite(cmd.Flags.suite)
		if err != nil {
			return err
		}
		cmd.checks = checks
	}
	return nil
}

func (cmd *CmdSteveCheck) InputToOptions() {}

func (cmd *CmdSteveCheck) Run() error {
	ctx := context.Background()
	cli := cmd.client.GetKubeClient()

	if cmd.Flags.portForward {
		forwarder, err := cmd.forwardToRancher(ctx)
		if err != nil {
			return fmt.Errorf("unable to port-forward to a rancher pod: %s", err)
		}
		defer forwarder.Stop()
		cmd.alive = forwarder.Alive
		// the rancher certificate never matches 127.0.0.1
		steveClient, err := steve.NewClient(fmt.Sprintf("https://127.0.0.1:%d", forwarder.LocalPort), cmd.Flags.token, true)
		if err != nil {
			return err
		}
		cmd.steveClient = steveClient
	}

	logDir, err := report.NewLogDir("rprobe-steve", cmd.Flags.output)
	if err != nil {
		return err
	}

	fixtures := steve.NewFixtures()
	fmt.Printf("Creating test fixtures for run %s\n", fixtures.RunID)
	if err := fixtures.Setup(ctx, cli); err != nil {
		return err
	}

	// WaitVisible polls internally, the spinner only dresses it up
	err = utils.WithSpinner("Waiting for the fixtures to show up in steve...", func() error {
		return fixtures.WaitVisible(ctx, cmd.steveClient, cmd.Flags.timeout, cmd.Flags.interval)
	})
	if err != nil {
		cmd.cleanup(ctx, fixtures)
		return fmt.Errorf("fixtures did not become visible through steve: %s", err)
	}
	if err := cmd.forwardDropped(); err != nil {
		cmd.cleanup(ctx, fixtures)
		return err
	}

	checks := append(fixtures.BuiltinChecks(), cmd.checks...)
	var log strings.Builder
	tally := steve.RunChecks(ctx, cmd.steveClient, checks, io.MultiWriter(os.Stdout, &log))
	if _, err := logDir.WriteFile("checks.log", []byte(log.String())); err != nil {
		return err
	}
	if _, err := logDir.WriteSummary(tally); err != nil {
		return err
	}
	fmt.Println("Logs written to", logDir.Path)
	fmt.Println(tally.Summary())

	// a dropped forward explains check errors better than the tally
	if err := cmd.forwardDropped(); err != nil {
		cmd.finishCleanup(ctx, fixtures)
		return err
	}

	if err := cmd.finishCleanup(ctx, fixtures); err != nil {
		return err
	}

	if !tally.Succeeded() {
		return fmt.Errorf("%d of %d checks did not pass", tally.Total()-tally.Count(report.Pass), tally.Total())
	}
	return nil
}

// forwardDropped fails fast when the backgrounded port-forward has
// terminated, with the error that ended it.
func (cmd *CmdSteveCheck) forwardDropped() error {
	if cmd.alive == nil {
		return nil
	}
	ok, err := cmd.alive()
	if ok {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("the connection closed")
	}
	return fmt.Errorf("the port-forward to the rancher pod dropped: %s", err)
}

// finishCleanup deletes the fixtures at the end of a run. A cleanup
// failure is reported but only fails the run under --strict-cleanup.
func (cmd *CmdSteveCheck) finishCleanup(ctx context.Context, fixtures *steve.Fixtures) error {
	if err := cmd.cleanup(ctx, fixtures); err != nil {
		fmt.Println("Cleanup failed:", err)
		if cmd.Flags.strictCleanup {
			return err
		}
	}
	return nil
}

// forwardToRancher forwards the local port to port 443 of the first
// running rancher pod.
func (cmd *CmdSteveCheck) forwardToRancher(ctx context.Context) (*kube.PortForwarder, error) {
	cli := cmd.client.GetKubeClient()
	pods, err := kubeclient.ListPodsByPrefix(ctx, cli, cmd.client.Namespace, cmd.Flags.podPrefix, nil)
	if err != nil {
		return nil, err
	}
	for _, pod := range pods {
		if !kubeclient.IsPodRunning(&pod) {
			continue
		}
		fmt.Printf("Forwarding 127.0.0.1:%d to pod %s port 443\n", cmd.Flags.localPort, pod.Name)
		return kube.ForwardPodPort(ctx, cli, cmd.client.GetRestConfig(), cmd.client.Namespace, pod.Name, cmd.Flags.localPort, 443, io.Discard)
	}
	return nil, fmt.Errorf("no running pod with prefix %q in namespace %s", cmd.Flags.podPrefix, cmd.client.Namespace)
}

func (cmd *CmdSteveCheck) cleanup(ctx context.Context, fixtures *steve.Fixtures) error {
	if cmd.Flags.skipCleanup {
		fmt.Printf("Keeping fixture namespaces %s\n", strings.Join(fixtures.Namespaces, ", "))
		return nil
	}
	if !cmd.Flags.autoMode && !cmd.confirm(fmt.Sprintf("Delete the fixture namespaces %s?", strings.Join(fixtures.Namespaces, ", "))) {
		fmt.Println("Fixtures kept")
		return nil
	}
	return fixtures.Cleanup(ctx, cmd.client.GetKubeClient())
}

// confirmOnTerminal asks a yes/no question on stdin. Anything but an
// explicit yes, including a closed stdin in non-interactive runs,
// counts as no.
func confirmOnTerminal(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
