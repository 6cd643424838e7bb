/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

func IsPodReady(pod *corev1.Pod) bool {
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

func IsPodRunning(pod *corev1.Pod) bool {
	return pod.Status.Phase == corev1.PodRunning
}

// ListPodsByPrefix returns the pods of the namespace whose name starts
// with prefix, skipping any whose name contains one of the exclude
// fragments. The result is sorted by name.
func ListPodsByPrefix(ctx context.Context, cli kubernetes.Interface, namespace string, prefix string, exclude []string) ([]corev1.Pod, error) {
	podList, err := cli.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	var pods []corev1.Pod
	for _, pod := range podList.Items {
		if !strings.HasPrefix(pod.Name, prefix) {
			continue
		}
		if utils.ContainsAny(pod.Name, exclude) {
			continue
		}
		pods = append(pods, pod)
	}
	sort.Slice(pods, func(i, j int) bool { return pods[i].Name < pods[j].Name })
	return pods, nil
}

// WaitForPodsByPrefixStatus polls until at least one pod matches the
// prefix and every matching pod reports the wanted phase, or the
// timeout elapses.
func WaitForPodsByPrefixStatus(ctx context.Context, cli kubernetes.Interface, namespace string, prefix string, exclude []string, status corev1.PodPhase, timeout time.Duration, interval time.Duration) ([]corev1.Pod, error) {
	var pods []corev1.Pod

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := utils.RetryWithContext(ctx, interval, func() (bool, error) {
		var err error
		pods, err = ListPodsByPrefix(ctx, cli, namespace, prefix, exclude)
		if err != nil {
			// pods do not exist yet
			return false, nil
		}
		if len(pods) == 0 {
			return false, nil
		}
		for _, pod := range pods {
			if pod.Status.Phase != status {
				return false, nil
			}
		}
		return true, nil
	})

	return pods, err
}

func GetPodContainerLogs(ctx context.Context, cli kubernetes.Interface, namespace string, podName string, containerName string) (string, error) {
	podLogOpts := corev1.PodLogOptions{}
	if containerName != "" {
		podLogOpts.Container = containerName
	}
	return GetPodContainerLogsWithOpts(ctx, cli, namespace, podName, podLogOpts)
}

func GetPodContainerLogsWithOpts(ctx context.Context, cli kubernetes.Interface, namespace string, podName string, podLogOpts corev1.PodLogOptions) (string, error) {
	req := cli.CoreV1().Pods(namespace).GetLogs(podName, &podLogOpts)
	podLogs, err := req.Stream(ctx)
	if err != nil {
		return "", err
	}
	defer podLogs.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, podLogs)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
