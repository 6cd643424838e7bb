package steve

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNewClientValidation(t *testing.T) {
	testTable := []struct {
		name          string
		url           string
		expectedError string
	}{
		{name: "https", url: "https://rancher.example.com"},
		{name: "trailing slash trimmed", url: "https://rancher.example.com/"},
		{name: "no scheme", url: "rancher.example.com", expectedError: "expected http(s)"},
		{name: "bad scheme", url: "ftp://rancher.example.com", expectedError: "expected http(s)"},
		{name: "empty", url: "", expectedError: "expected http(s)"},
	}

	for _, test := range testTable {
		t.Run(test.name, func(t *testing.T) {
			client, err := NewClient(test.url, "token", false)
			if test.expectedError == "" {
				assert.NilError(t, err)
				assert.Assert(t, client.BaseURL[len(client.BaseURL)-1] != '/')
			} else {
				assert.ErrorContains(t, err, test.expectedError)
			}
		})
	}
}

func TestClientList(t *testing.T) {
	fake := &fakeSteve{
		token:       "secret",
		collections: fixtureCollections(testFixtures()),
	}
	server := fake.server()
	defer server.Close()

	client, err := NewClient(server.URL, "secret", false)
	assert.NilError(t, err)
	ctx := context.Background()

	collection, err := client.List(ctx, "v1/configmaps", ListOptions{})
	assert.NilError(t, err)
	assert.Equal(t, len(collection.Data), 8)

	collection, err = client.List(ctx, "v1/configmaps", ListOptions{Filter: []string{"metadata.name=cm-alpha"}})
	assert.NilError(t, err)
	assert.Equal(t, len(collection.Data), 3)

	_, err = client.List(ctx, "v1/no-such-type", ListOptions{})
	assert.ErrorContains(t, err, "404")
}

func TestClientListRejectsBadToken(t *testing.T) {
	fake := &fakeSteve{token: "secret", collections: map[string][]Resource{"configmaps": {}}}
	server := fake.server()
	defer server.Close()

	client, err := NewClient(server.URL, "wrong", false)
	assert.NilError(t, err)

	_, err = client.List(context.Background(), "v1/configmaps", ListOptions{})
	assert.ErrorContains(t, err, "401")
}

func TestClientListAll(t *testing.T) {
	fixtures := testFixtures()
	fake := &fakeSteve{collections: fixtureCollections(fixtures)}
	server := fake.server()
	defer server.Close()

	client, err := NewClient(server.URL, "", false)
	assert.NilError(t, err)
	ctx := context.Background()

	opts := ListOptions{Filter: []string{fixtures.runFilter()}, Limit: 2}
	page, err := client.List(ctx, "v1/configmaps", opts)
	assert.NilError(t, err)
	assert.Equal(t, len(page.Data), 2)
	assert.Assert(t, page.Continue != "")

	merged, err := client.ListAll(ctx, "v1/configmaps", opts)
	assert.NilError(t, err)
	assert.Equal(t, len(merged.Data), configMapCount)
	assert.Equal(t, merged.Continue, "")
}

func TestResourceField(t *testing.T) {
	resource := object("configmap", "cattle-system", "cm-alpha", map[string]interface{}{
		"color":  "red",
		RunLabel: "1f2e3d4c",
	})

	assert.Equal(t, resource.Field("metadata.name"), "cm-alpha")
	assert.Equal(t, resource.Field("metadata.namespace"), "cattle-system")
	assert.Equal(t, resource.Field("metadata.labels[color]"), "red")
	assert.Equal(t, resource.Field("metadata.labels["+RunLabel+"]"), "1f2e3d4c")
	assert.Equal(t, resource.Field("metadata.missing"), "")
	assert.Equal(t, resource.Field("metadata.name.deeper"), "")
}
