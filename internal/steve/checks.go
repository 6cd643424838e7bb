package steve

import (
	"context"
	"fmt"
	"strings"
)

// A Check is one query against a steve collection together with the
// outcome it is expected to produce: an item count, an item order, or
// both.
type Check struct {
	Name     string      `yaml:"name"`
	Resource string      `yaml:"resource"`
	Options  ListOptions `yaml:"options"`
	// Paginate follows continue tokens until the collection is
	// exhausted, so a limit check can verify the accumulated total
	// instead of the page size.
	Paginate    bool     `yaml:"paginate,omitempty"`
	ExpectCount *int     `yaml:"expectCount,omitempty"`
	ExpectNames []string `yaml:"expectNames,omitempty"`
}

func (c Check) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("every check needs a name")
	}
	if strings.TrimSpace(c.Resource) == "" {
		return fmt.Errorf("check %q does not name a resource", c.Name)
	}
	if c.ExpectCount == nil && len(c.ExpectNames) == 0 {
		return fmt.Errorf("check %q does not state an expectation", c.Name)
	}
	return nil
}

// Run issues the query and compares the collection against the
// expectations. The returned detail is human readable either way.
func (c Check) Run(ctx context.Context, client *Client) (bool, string, error) {
	path := "v1/" + strings.TrimLeft(c.Resource, "/")
	var collection *Collection
	var err error
	if c.Paginate {
		collection, err = client.ListAll(ctx, path, c.Options)
	} else {
		collection, err = client.List(ctx, path, c.Options)
	}
	if err != nil {
		return false, "", err
	}

	if c.ExpectCount != nil && len(collection.Data) != *c.ExpectCount {
		return false, fmt.Sprintf("expected %d items, got %d", *c.ExpectCount, len(collection.Data)), nil
	}
	if len(c.ExpectNames) > 0 {
		names := make([]string, 0, len(collection.Data))
		for _, resource := range collection.Data {
			names = append(names, resource.Field("metadata.name"))
		}
		if !equalStrings(names, c.ExpectNames) {
			return false, fmt.Sprintf("expected order %v, got %v", c.ExpectNames, names), nil
		}
	}

	detail := fmt.Sprintf("%d items", len(collection.Data))
	if c.ExpectCount != nil {
		detail = fmt.Sprintf("expected %d items, got %d", *c.ExpectCount, len(collection.Data))
	}
	return true, detail, nil
}

func equalStrings(got []string, expected []string) bool {
	if len(got) != len(expected) {
		return false
	}
	for i := range got {
		if got[i] != expected[i] {
			return false
		}
	}
	return true
}

func expectCount(count int) *int {
	return &count
}
