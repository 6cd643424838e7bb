package steve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

// RunLabel marks every fixture object with the identity of the run
// that created it. Cleanup only ever touches objects carrying its own
// run id, so reruns and concurrent runs cannot delete each other's
// fixtures.
const RunLabel = "rancher-test-scripts/run"

// Fixtures is the known dataset the built-in checks query: three
// namespaces holding ConfigMaps and a Secret with fixed names and
// labels.
type Fixtures struct {
	RunID      string
	Namespaces []string
}

type fixtureObject struct {
	namespace int
	name      string
	color     string
	secret    bool
}

// The dataset the built-in check expectations are written against.
// Six ConfigMaps and one Secret spread over the three namespaces.
var fixtureObjects = []fixtureObject{
	{namespace: 0, name: "cm-alpha", color: "red"},
	{namespace: 0, name: "cm-beta", color: "blue"},
	{namespace: 0, name: "cm-gamma", color: "red"},
	{namespace: 0, name: "sec-alpha", color: "red", secret: true},
	{namespace: 1, name: "cm-alpha", color: "blue"},
	{namespace: 1, name: "cm-delta", color: "red"},
	{namespace: 2, name: "cm-epsilon", color: "green"},
}

const configMapCount = 6

// NewFixtures names a fresh fixture set without creating anything.
func NewFixtures() *Fixtures {
	runID := strings.Split(uuid.NewString(), "-")[0]
	f := &Fixtures{RunID: runID}
	for i := 1; i <= 3; i++ {
		f.Namespaces = append(f.Namespaces, fmt.Sprintf("steve-check-%s-%d", runID, i))
	}
	return f
}

func (f *Fixtures) labels(color string) map[string]string {
	return map[string]string{
		RunLabel: f.RunID,
		"color":  color,
	}
}

// Setup creates the namespaces and then the objects inside them, the
// objects concurrently since they are independent.
func (f *Fixtures) Setup(ctx context.Context, cli kubernetes.Interface) error {
	for _, name := range f.Namespaces {
		ns := &corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{
				Name:   name,
				Labels: map[string]string{RunLabel: f.RunID},
			},
		}
		if _, err := cli.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("unable to create fixture namespace %s: %w", name, err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, object := range fixtureObjects {
		object := object
		namespace := f.Namespaces[object.namespace]
		group.Go(func() error {
			meta := metav1.ObjectMeta{
				Name:      object.name,
				Namespace: namespace,
				Labels:    f.labels(object.color),
			}
			var err error
			if object.secret {
				secret := &corev1.Secret{
					ObjectMeta: meta,
					Type:       corev1.SecretTypeOpaque,
					StringData: map[string]string{"probe": f.RunID},
				}
				_, err = cli.CoreV1().Secrets(namespace).Create(groupCtx, secret, metav1.CreateOptions{})
			} else {
				configMap := &corev1.ConfigMap{
					ObjectMeta: meta,
					Data:       map[string]string{"probe": f.RunID},
				}
				_, err = cli.CoreV1().ConfigMaps(namespace).Create(groupCtx, configMap, metav1.CreateOptions{})
			}
			if err != nil {
				return fmt.Errorf("unable to create fixture %s/%s: %w", namespace, object.name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

// WaitVisible polls the steve endpoint until every fixture ConfigMap
// shows up, or the timeout elapses. The steve cache lags the API
// server by a moment after creation.
func (f *Fixtures) WaitVisible(ctx context.Context, client *Client, timeout time.Duration, interval time.Duration) error {
	opts := ListOptions{
		Filter:               []string{f.runFilter()},
		ProjectsOrNamespaces: strings.Join(f.Namespaces, ","),
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return utils.RetryWithContext(ctx, interval, func() (bool, error) {
		collection, err := client.ListAll(ctx, "v1/configmaps", opts)
		if err != nil {
			return false, nil
		}
		return len(collection.Data) == configMapCount, nil
	})
}

// Cleanup deletes the fixture namespaces. A namespace is only deleted
// after its run label has been verified, and a missing namespace is
// not an error.
func (f *Fixtures) Cleanup(ctx context.Context, cli kubernetes.Interface) error {
	var errs []string
	for _, name := range f.Namespaces {
		ns, err := cli.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			continue
		}
		if ns.Labels[RunLabel] != f.RunID {
			errs = append(errs, fmt.Sprintf("namespace %s is not owned by this run, not deleting it", name))
			continue
		}
		if err := cli.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{}); err != nil {
			errs = append(errs, fmt.Sprintf("unable to delete namespace %s: %s", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (f *Fixtures) runFilter() string {
	return fmt.Sprintf("metadata.labels[%s]=%s", RunLabel, f.RunID)
}

// BuiltinChecks is the query semantics table: one check per filter,
// sort, limit and projectsornamespaces behavior, each scoped to this
// run's fixtures so pre-existing cluster content cannot skew counts.
func (f *Fixtures) BuiltinChecks() []Check {
	allNamespaces := strings.Join(f.Namespaces, ",")
	ns1, ns2 := f.Namespaces[0], f.Namespaces[1]

	return []Check{
		{
			Name:        "filter by exact name",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter(), "metadata.name=cm-alpha"}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(2),
		},
		{
			Name:        "filter by partial name",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter(), "metadata.name~gamma"}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(1),
		},
		{
			Name:        "filter with multi-value or",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter(), "metadata.name=cm-beta,metadata.name=cm-delta"}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(2),
		},
		{
			Name:        "filter with negation",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter(), "metadata.name!=cm-alpha"}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(4),
		},
		{
			Name:        "filter by label",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter(), "metadata.labels[color]=red"}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(3),
		},
		{
			Name:        "sort ascending",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, Sort: "metadata.name", ProjectsOrNamespaces: ns1},
			ExpectNames: []string{"cm-alpha", "cm-beta", "cm-gamma"},
		},
		{
			Name:        "sort descending",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, Sort: "-metadata.name", ProjectsOrNamespaces: ns1},
			ExpectNames: []string{"cm-gamma", "cm-beta", "cm-alpha"},
		},
		{
			Name:        "sort by multiple keys",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, Sort: "metadata.namespace,-metadata.name", ProjectsOrNamespaces: ns1 + "," + ns2},
			ExpectNames: []string{"cm-gamma", "cm-beta", "cm-alpha", "cm-delta", "cm-alpha"},
		},
		{
			Name:        "limit bounds the page",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, Limit: 2, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(2),
		},
		{
			Name:        "limit with pagination reaches every item",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, Limit: 2, ProjectsOrNamespaces: allNamespaces},
			Paginate:    true,
			ExpectCount: expectCount(configMapCount),
		},
		{
			Name:        "namespace inclusion",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, ProjectsOrNamespaces: ns2},
			ExpectCount: expectCount(2),
		},
		{
			Name:        "namespace exclusion",
			Resource:    "configmaps",
			Options:     ListOptions{Filter: []string{f.runFilter()}, ProjectsOrNamespaces: "!" + ns1},
			ExpectCount: expectCount(3),
		},
		{
			Name:        "secrets are filterable too",
			Resource:    "secrets",
			Options:     ListOptions{Filter: []string{f.runFilter()}, ProjectsOrNamespaces: allNamespaces},
			ExpectCount: expectCount(1),
		},
	}
}
