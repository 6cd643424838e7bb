package fake

import (
	"errors"

	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	restclient "k8s.io/client-go/rest"
	k8stesting "k8s.io/client-go/testing"

	"github.com/brudnak/rancher-test-scripts/internal/kube/client"
)

// NewFakeClient builds a KubeClient backed by a fake clientset seeded
// with the given objects. A non empty failure makes every API call
// return that error.
func NewFakeClient(namespace string, k8sObjects []runtime.Object, failure string) *client.KubeClient {
	kube := k8sfake.NewSimpleClientset(k8sObjects...)
	if failure != "" {
		kube.PrependReactor("*", "*", func(action k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, errors.New(failure)
		})
	}

	return &client.KubeClient{
		Namespace: namespace,
		Kube:      kube,
		Rest:      &restclient.Config{},
	}
}
