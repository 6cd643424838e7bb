package portcheck

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common/testutils"
	"github.com/brudnak/rancher-test-scripts/internal/kube/client/fake"
	"github.com/brudnak/rancher-test-scripts/internal/portscan"
)

func rancherPod(name string) runtime.Object {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "cattle-system"},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "rancher"}}},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func TestCmdPortCheck_NewCmdPortCheck(t *testing.T) {
	result := NewCmdPortCheck()

	assert.Check(t, result.CobraCmd.Use != "")
	assert.Check(t, result.CobraCmd.Short != "")
	assert.Check(t, result.CobraCmd.Long != "")
	assert.Check(t, result.CobraCmd.PreRun != nil)
	assert.Check(t, result.CobraCmd.Run != nil)
	assert.Check(t, result.CobraCmd.Flags() != nil)
}

func TestCmdPortCheck_AddFlags(t *testing.T) {
	expectedFlagsWithDefaultValue := map[string]interface{}{
		"port":                "0",
		"port-hex":            "",
		"mode":                "check",
		"pod-prefix":          "rancher-",
		"exclude":             "[webhook]",
		"container":           "",
		"use-debug-container": "false",
		"debug-image":         "busybox",
		"timeout":             "2m0s",
		"interval":            "2s",
		"output":              "",
		"archive":             "false",
		"dry-run":             "false",
	}

	cmd := NewCmdPortCheck()
	var flagList []string
	cmd.CobraCmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flagList = append(flagList, flag.Name)
		assert.Check(t, expectedFlagsWithDefaultValue[flag.Name] != nil, "unexpected flag %s", flag.Name)
		assert.Check(t, expectedFlagsWithDefaultValue[flag.Name] == flag.DefValue, "flag %s default %s", flag.Name, flag.DefValue)
	})
	assert.Check(t, len(flagList) == len(expectedFlagsWithDefaultValue))
}

func TestCmdPortCheck_ValidateInput(t *testing.T) {
	type test struct {
		name          string
		args          []string
		flags         PortCheckFlags
		clientErr     error
		expectedError string
	}

	testTable := []test{
		{
			name:  "valid decimal port",
			flags: PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-"},
		},
		{
			name:  "valid hex port",
			flags: PortCheckFlags{portHex: "1A0A", mode: "disabled", podPrefix: "rancher-"},
		},
		{
			name:  "matching decimal and hex",
			flags: PortCheckFlags{port: 6666, portHex: "1A0A", mode: "enabled", podPrefix: "rancher-"},
		},
		{
			name:          "positional arguments are rejected",
			args:          []string{"rancher-0"},
			flags:         PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-"},
			expectedError: `portcheck does not take arguments, got ["rancher-0"]`,
		},
		{
			name:          "client failure",
			flags:         PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-"},
			clientErr:     fmt.Errorf("unable to reach the cluster: no kubeconfig"),
			expectedError: "unable to reach the cluster: no kubeconfig",
		},
		{
			name:          "bad mode",
			flags:         PortCheckFlags{port: 6666, mode: "on", podPrefix: "rancher-"},
			expectedError: `mode "on" is not valid, it should be one of: enabled, disabled, check`,
		},
		{
			name:          "disagreeing ports",
			flags:         PortCheckFlags{port: 443, portHex: "1A0A", mode: "check", podPrefix: "rancher-"},
			expectedError: "--port 443 and --port-hex 1A0A disagree",
		},
		{
			name:          "no port at all",
			flags:         PortCheckFlags{mode: "check", podPrefix: "rancher-"},
			expectedError: "a port is required, set --port or --port-hex",
		},
		{
			name:          "port out of range",
			flags:         PortCheckFlags{port: 70000, mode: "check", podPrefix: "rancher-"},
			expectedError: "port 70000 is out of range, it should be between 1 and 65535",
		},
		{
			name:          "bad hex port",
			flags:         PortCheckFlags{portHex: "XYZ", mode: "check", podPrefix: "rancher-"},
			expectedError: `hex port "XYZ" is not valid: strconv.ParseUint: parsing "XYZ": invalid syntax`,
		},
		{
			name:          "empty pod prefix",
			flags:         PortCheckFlags{port: 6666, mode: "check", podPrefix: " "},
			expectedError: "the pod prefix must not be empty",
		},
	}

	for _, test := range testTable {
		t.Run(test.name, func(t *testing.T) {
			cmd := &CmdPortCheck{Flags: test.flags, clientErr: test.clientErr}
			testutils.CheckValidateInput(t, cmd, test.expectedError, test.args)
		})
	}
}

func TestCmdPortCheck_ResolvesHexPort(t *testing.T) {
	cmd := &CmdPortCheck{Flags: PortCheckFlags{portHex: "1A0A", mode: "check", podPrefix: "rancher-"}}
	assert.NilError(t, cmd.ValidateInput(nil))
	assert.Equal(t, cmd.port, 6666)
	assert.Equal(t, cmd.mode, portscan.ModeCheck)
}

func TestCmdPortCheck_DryRun(t *testing.T) {
	cmd := &CmdPortCheck{
		Flags:  PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-", exclude: []string{"webhook"}, dryRun: true},
		client: fake.NewFakeClient("cattle-system", []runtime.Object{rancherPod("rancher-0"), rancherPod("rancher-webhook-0")}, ""),
	}
	assert.NilError(t, cmd.ValidateInput(nil))
	cmd.InputToOptions()
	assert.Equal(t, cmd.namespace, "cattle-system")

	assert.NilError(t, cmd.Run())
}

func TestCmdPortCheck_DryRunNoPods(t *testing.T) {
	cmd := &CmdPortCheck{
		Flags:  PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-", dryRun: true},
		client: fake.NewFakeClient("cattle-system", nil, ""),
	}
	assert.NilError(t, cmd.ValidateInput(nil))
	cmd.InputToOptions()

	assert.Error(t, cmd.Run(), `no pods matched prefix "rancher-" in namespace cattle-system`)
}

func TestCmdPortCheck_WaitForPodsFailure(t *testing.T) {
	pending := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "rancher-0", Namespace: "cattle-system"},
		Status:     corev1.PodStatus{Phase: corev1.PodPending},
	}
	cmd := &CmdPortCheck{
		Flags:  PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-", timeout: time.Second},
		client: fake.NewFakeClient("cattle-system", []runtime.Object{pending}, ""),
	}
	assert.NilError(t, cmd.ValidateInput(nil))
	cmd.InputToOptions()

	_, err := cmd.waitForPods(context.Background())
	assert.ErrorContains(t, err, "not running")
}

func TestCmdPortCheck_WaitForPodsNotReady(t *testing.T) {
	unready := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "rancher-0", Namespace: "cattle-system"},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}
	cmd := &CmdPortCheck{
		Flags:  PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-", timeout: time.Second},
		client: fake.NewFakeClient("cattle-system", []runtime.Object{unready}, ""),
	}
	assert.NilError(t, cmd.ValidateInput(nil))
	cmd.InputToOptions()

	_, err := cmd.waitForPods(context.Background())
	assert.ErrorContains(t, err, "not ready")
}

func TestCmdPortCheck_WaitForPodsReady(t *testing.T) {
	cmd := &CmdPortCheck{
		Flags:  PortCheckFlags{port: 6666, mode: "check", podPrefix: "rancher-", timeout: time.Second},
		client: fake.NewFakeClient("cattle-system", []runtime.Object{rancherPod("rancher-0"), rancherPod("rancher-1")}, ""),
	}
	assert.NilError(t, cmd.ValidateInput(nil))
	cmd.InputToOptions()

	pods, err := cmd.waitForPods(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(pods), 2)
}

func TestScanDetail(t *testing.T) {
	dump := []byte(`  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:0050 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 1
   1: 0100007F:01BB 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 2
   2: 0100007F:0050 0100007F:A3D2 01 00000000:00000000 00:00000000 00000000     0        0 3
`)

	listening, detail := scanDetail(80, dump)
	assert.Assert(t, listening)
	assert.Equal(t, detail, "listening on port 80")

	listening, detail = scanDetail(6666, dump)
	assert.Assert(t, !listening)
	assert.Equal(t, detail, "not listening on port 6666, listening ports are 80, 443")

	listening, detail = scanDetail(6666, []byte("  sl  local_address rem_address   st\n"))
	assert.Assert(t, !listening)
	assert.Equal(t, detail, "not listening on port 6666")
}
