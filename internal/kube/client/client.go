// Package client provides access to the Kubernetes API server for the
// probe commands.
package client

import (
	"fmt"
	"os"

	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubeconfigContentEnvVar may carry the kubeconfig content itself
// instead of a path, for CI environments that inject credentials
// without mounting a file.
const KubeconfigContentEnvVar = "KUBECONFIG_ENV"

// The Clients interface defines access to the client interfaces
// required for interactions with the Kubernetes API server.
type Clients interface {
	GetKubeClient() kubernetes.Interface
	GetRestConfig() *restclient.Config
	GetNamespace() string
}

// A KubeClient bundles the clientset, the rest config it was built
// from and the namespace the probes operate in.
type KubeClient struct {
	Namespace string
	Kube      kubernetes.Interface
	Rest      *restclient.Config
}

func (c *KubeClient) GetNamespace() string {
	return c.Namespace
}

func (c *KubeClient) GetKubeClient() kubernetes.Interface {
	return c.Kube
}

func (c *KubeClient) GetRestConfig() *restclient.Config {
	return c.Rest
}

// NewClient builds a client for the given context and namespace. An
// explicit kubeconfig path wins over KUBECONFIG_ENV content, which in
// turn wins over the standard KUBECONFIG loading rules. An empty
// namespace falls back to the namespace of the selected context.
func NewClient(namespace string, context string, kubeConfigPath string) (*KubeClient, error) {
	c := &KubeClient{}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeConfigPath != "" {
		loadingRules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeConfigPath}
	} else if content := os.Getenv(KubeconfigContentEnvVar); content != "" {
		path, cleanup, err := writeKubeconfigContent(content)
		if err != nil {
			return c, err
		}
		defer cleanup()
		loadingRules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	}
	kubeconfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{
			CurrentContext: context,
		},
	)
	restconfig, err := kubeconfig.ClientConfig()
	if err != nil {
		return c, err
	}
	c.Rest = restconfig
	c.Kube, err = kubernetes.NewForConfig(restconfig)
	if err != nil {
		return c, err
	}

	if namespace == "" {
		c.Namespace, _, err = kubeconfig.Namespace()
		if err != nil {
			return c, err
		}
	} else {
		c.Namespace = namespace
	}

	return c, nil
}

func writeKubeconfigContent(content string) (string, func(), error) {
	file, err := os.CreateTemp("", "rprobe-kubeconfig-*.yaml")
	if err != nil {
		return "", nil, fmt.Errorf("failed to stage kubeconfig from %s: %s", KubeconfigContentEnvVar, err)
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("failed to stage kubeconfig from %s: %s", KubeconfigContentEnvVar, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", nil, fmt.Errorf("failed to stage kubeconfig from %s: %s", KubeconfigContentEnvVar, err)
	}
	return file.Name(), func() { os.Remove(file.Name()) }, nil
}
