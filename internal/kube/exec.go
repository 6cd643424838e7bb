package kube

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// ExecCommandInContainer runs command inside a container of the pod
// and returns its standard output. An empty containerName targets the
// first container of the pod. Standard error is folded into the
// returned error.
func ExecCommandInContainer(ctx context.Context, cli kubernetes.Interface, config *restclient.Config, namespace string, podName string, containerName string, command []string) (*bytes.Buffer, error) {
	if containerName == "" {
		pod, err := cli.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
		if err != nil {
			return nil, err
		}
		containerName = pod.Spec.Containers[0].Name
	}

	req := cli.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: containerName,
			Command:   command,
			Stdin:     false,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(config, "POST", req.URL())
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return nil, execError(err, &stderr)
	}
	return &stdout, nil
}

// execError attaches whatever the command printed on standard error to
// the stream error, since that is usually the part worth reading.
func execError(err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%s: %s", err, msg)
	}
	return err
}
