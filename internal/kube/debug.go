package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/brudnak/rancher-test-scripts/internal/kube/client"
	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

// RunDebugContainer injects an ephemeral container into the pod, waits
// for it to terminate and returns its log output. It is the fallback
// for images too minimal to exec the probe command directly. The
// ephemeral container cannot be removed afterwards, it stays in the
// pod spec as terminated until the pod is recreated.
func RunDebugContainer(ctx context.Context, cli kubernetes.Interface, namespace string, podName string, image string, command []string, timeout time.Duration, interval time.Duration) (string, error) {
	pod, err := cli.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("rprobe-debug-%s", utils.RandomId(5))
	pod.Spec.EphemeralContainers = append(pod.Spec.EphemeralContainers, corev1.EphemeralContainer{
		EphemeralContainerCommon: corev1.EphemeralContainerCommon{
			Name:    name,
			Image:   image,
			Command: command,
		},
		TargetContainerName: pod.Spec.Containers[0].Name,
	})
	_, err = cli.CoreV1().Pods(namespace).UpdateEphemeralContainers(ctx, podName, pod, metav1.UpdateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start debug container in pod %s: %s", podName, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err = utils.RetryWithContext(waitCtx, interval, func() (bool, error) {
		current, err := cli.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
		if err != nil {
			return false, nil
		}
		for _, status := range current.Status.EphemeralContainerStatuses {
			if status.Name != name {
				continue
			}
			if terminated := status.State.Terminated; terminated != nil {
				if terminated.ExitCode != 0 {
					return false, fmt.Errorf("debug container %s in pod %s exited with code %d", name, podName, terminated.ExitCode)
				}
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}

	return client.GetPodContainerLogs(ctx, cli, namespace, podName, name)
}
