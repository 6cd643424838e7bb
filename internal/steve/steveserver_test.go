package steve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// fakeSteve serves static collections with the steve query semantics
// the checks exercise: filter (equals, partial, negation, multi-value
// or), sort (multi key, descending), limit with continue tokens and
// projectsornamespaces with ! exclusion.
type fakeSteve struct {
	token       string
	collections map[string][]Resource
}

func (s *fakeSteve) server() *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/v1/{resource}", s.list).Methods(http.MethodGet)
	return httptest.NewServer(router)
}

func (s *fakeSteve) list(w http.ResponseWriter, r *http.Request) {
	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	resource := mux.Vars(r)["resource"]
	items, ok := s.collections[resource]
	if !ok {
		http.Error(w, "no such resource type", http.StatusNotFound)
		return
	}
	query := r.URL.Query()

	var selected []Resource
	for _, item := range items {
		if matchNamespaces(item, query.Get("projectsornamespaces")) && matchFilters(item, query["filter"]) {
			selected = append(selected, item)
		}
	}
	sortResources(selected, query.Get("sort"))

	offset := 0
	if token := query.Get("continue"); token != "" {
		offset, _ = strconv.Atoi(token)
	}
	limit := len(selected)
	if value := query.Get("limit"); value != "" {
		limit, _ = strconv.Atoi(value)
	}
	end := offset + limit
	if end > len(selected) {
		end = len(selected)
	}
	continueToken := ""
	if end < len(selected) {
		continueToken = strconv.Itoa(end)
	}

	page := selected[offset:end]
	if page == nil {
		page = []Resource{}
	}
	json.NewEncoder(w).Encode(Collection{
		Type:     "collection",
		Count:    len(selected),
		Continue: continueToken,
		Data:     page,
	})
}

// matchFilters ands the filter parameters together, each parameter
// oring its comma separated clauses.
func matchFilters(item Resource, filters []string) bool {
	for _, filter := range filters {
		matched := false
		for _, clause := range strings.Split(filter, ",") {
			if matchClause(item, clause) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func matchClause(item Resource, clause string) bool {
	if i := strings.Index(clause, "!="); i >= 0 {
		return item.Field(clause[:i]) != clause[i+2:]
	}
	if i := strings.Index(clause, "="); i >= 0 {
		return item.Field(clause[:i]) == clause[i+1:]
	}
	if i := strings.Index(clause, "~"); i >= 0 {
		return strings.Contains(item.Field(clause[:i]), clause[i+1:])
	}
	return false
}

func matchNamespaces(item Resource, param string) bool {
	if param == "" {
		return true
	}
	namespace := item.Field("metadata.namespace")
	var included []string
	for _, value := range strings.Split(param, ",") {
		if excluded, ok := strings.CutPrefix(value, "!"); ok {
			if namespace == excluded {
				return false
			}
			continue
		}
		included = append(included, value)
	}
	if len(included) == 0 {
		return true
	}
	for _, value := range included {
		if namespace == value {
			return true
		}
	}
	return false
}

func sortResources(items []Resource, keys string) {
	if keys == "" {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range strings.Split(keys, ",") {
			descending := false
			if field, ok := strings.CutPrefix(key, "-"); ok {
				descending = true
				key = field
			}
			left, right := items[i].Field(key), items[j].Field(key)
			if left == right {
				continue
			}
			if descending {
				return left > right
			}
			return left < right
		}
		return false
	})
}

func object(kind string, namespace string, name string, labels map[string]interface{}) Resource {
	metadata := map[string]interface{}{
		"name":      name,
		"namespace": namespace,
	}
	if labels != nil {
		metadata["labels"] = labels
	}
	return Resource{"type": kind, "metadata": metadata}
}

// fixtureCollections mirrors what the steve endpoint would serve once
// the Fixtures dataset has been created on the cluster.
func fixtureCollections(f *Fixtures) map[string][]Resource {
	collections := map[string][]Resource{"configmaps": {}, "secrets": {}}
	for _, fixture := range fixtureObjects {
		labels := map[string]interface{}{
			RunLabel: f.RunID,
			"color":  fixture.color,
		}
		kind := "configmap"
		collection := "configmaps"
		if fixture.secret {
			kind = "secret"
			collection = "secrets"
		}
		collections[collection] = append(collections[collection], object(kind, f.Namespaces[fixture.namespace], fixture.name, labels))
	}
	// content the filters must not pick up
	collections["configmaps"] = append(collections["configmaps"],
		object("configmap", "kube-system", "cm-alpha", nil),
		object("configmap", f.Namespaces[0], "cm-stray", map[string]interface{}{RunLabel: "another-run"}),
	)
	return collections
}

func testFixtures() *Fixtures {
	return &Fixtures{
		RunID:      "1f2e3d4c",
		Namespaces: []string{"steve-check-1f2e3d4c-1", "steve-check-1f2e3d4c-2", "steve-check-1f2e3d4c-3"},
	}
}
