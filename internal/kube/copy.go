package kube

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// CopyFileFromPod copies a single file out of a running container by
// streaming a tar archive over exec, the same transport kubectl cp
// uses. The container needs a tar binary on its path. The file is
// written to localPath with mode 0600.
func CopyFileFromPod(ctx context.Context, cli kubernetes.Interface, config *restclient.Config, namespace string, podName string, containerName string, remotePath string, localPath string) error {
	req := cli.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: containerName,
			Command:   []string{"tar", "cf", "-", "-C", path.Dir(remotePath), path.Base(remotePath)},
			Stdin:     false,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(config, "POST", req.URL())
	if err != nil {
		return err
	}

	reader, writer := io.Pipe()
	var stderr bytes.Buffer
	go func() {
		err := exec.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdout: writer,
			Stderr: &stderr,
		})
		writer.CloseWithError(execError(err, &stderr))
	}()

	return untarFile(reader, path.Base(remotePath), localPath)
}

// untarFile extracts the first regular file called name from the tar
// stream into localPath.
func untarFile(reader io.Reader, name string, localPath string) error {
	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return fmt.Errorf("%s not found in tar stream", name)
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg || path.Base(header.Name) != name {
			continue
		}

		file, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		if _, err := io.Copy(file, tarReader); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
}
