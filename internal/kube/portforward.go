package kube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"k8s.io/client-go/kubernetes"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// A PortForwarder keeps one pod port forwarded to a local port until
// it is stopped or the connection drops. Callers poll Alive between
// requests to notice a dropped forward early.
type PortForwarder struct {
	LocalPort int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	err      error
}

// Alive reports whether the forwarder is still serving, and the error
// that ended it when it is not.
func (f *PortForwarder) Alive() (bool, error) {
	select {
	case <-f.doneCh:
		return false, f.err
	default:
		return true, nil
	}
}

// Stop shuts the forwarder down and waits for it to finish.
func (f *PortForwarder) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	<-f.doneCh
}

// ForwardPodPort forwards localPort to podPort on the pod and returns
// once the forwarder accepts connections. Diagnostics from the
// forwarder are written to out.
func ForwardPodPort(ctx context.Context, cli kubernetes.Interface, config *restclient.Config, namespace string, podName string, localPort int, podPort int, out io.Writer) (*PortForwarder, error) {
	req := cli.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("portforward")

	transport, upgrader, err := spdy.RoundTripperFor(config)
	if err != nil {
		return nil, err
	}
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, "POST", req.URL())

	f := &PortForwarder{
		LocalPort: localPort,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	readyCh := make(chan struct{})
	forwarder, err := portforward.New(dialer, []string{fmt.Sprintf("%d:%d", localPort, podPort)}, f.stopCh, readyCh, out, out)
	if err != nil {
		return nil, err
	}

	go func() {
		f.err = forwarder.ForwardPorts()
		close(f.doneCh)
	}()

	select {
	case <-readyCh:
		return f, nil
	case <-f.doneCh:
		if f.err != nil {
			return nil, f.err
		}
		return nil, fmt.Errorf("port forward to pod %s closed before becoming ready", podName)
	case <-ctx.Done():
		f.Stop()
		return nil, ctx.Err()
	}
}
