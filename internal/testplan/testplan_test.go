package testplan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func samplePlan() *Plan {
	return &Plan{
		Title:     "Rancher v2.9 upgrade test plan",
		Tests:     []string{"Port 6666 disabled by default", "VAI cache survives rollout"},
		Generated: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	testTable := []struct {
		name          string
		plan          Plan
		expectedError string
	}{
		{
			name: "valid",
			plan: Plan{Title: "plan", Tests: []string{"a"}},
		},
		{
			name:          "empty title",
			plan:          Plan{Title: "  ", Tests: []string{"a"}},
			expectedError: "the plan title must not be empty",
		},
		{
			name:          "no tests",
			plan:          Plan{Title: "plan"},
			expectedError: "the plan needs at least one test title",
		},
		{
			name:          "blank test title",
			plan:          Plan{Title: "plan", Tests: []string{"a", " "}},
			expectedError: "test title 2 is empty",
		},
	}

	for _, test := range testTable {
		t.Run(test.name, func(t *testing.T) {
			err := test.plan.Validate()
			if test.expectedError == "" {
				assert.NilError(t, err)
			} else {
				assert.Error(t, err, test.expectedError)
			}
		})
	}
}

func TestRender(t *testing.T) {
	var out strings.Builder
	assert.NilError(t, samplePlan().Render(&out))
	markdown := out.String()

	assert.Assert(t, strings.HasPrefix(markdown, "# Rancher v2.9 upgrade test plan\n"))
	assert.Assert(t, strings.Contains(markdown, "Generated on 2024-11-05."))
	assert.Assert(t, strings.Contains(markdown, "| # | Test | Result | Notes |"))
	assert.Assert(t, strings.Contains(markdown, "| 1 | Port 6666 disabled by default | Pending | |"))
	assert.Assert(t, strings.Contains(markdown, "| 2 | VAI cache survives rollout | Pending | |"))
	assert.Assert(t, strings.Contains(markdown, "<summary>2. VAI cache survives rollout</summary>"))
	assert.Equal(t, strings.Count(markdown, "<details>"), 2)

	// deterministic for a fixed plan
	var again strings.Builder
	assert.NilError(t, samplePlan().Render(&again))
	assert.Equal(t, again.String(), markdown)
}

func TestParseTitles(t *testing.T) {
	titles := ParseTitles([]byte("# upgrade checks\n\nfirst test\n  second test  \n# skip me\n"))
	assert.DeepEqual(t, titles, []string{"first test", "second test"})
}

func TestLoadTitles(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "titles.txt")
	assert.NilError(t, os.WriteFile(plain, []byte("one\ntwo\n"), 0644))
	titles, err := LoadTitles(plain)
	assert.NilError(t, err)
	assert.DeepEqual(t, titles, []string{"one", "two"})

	list := filepath.Join(dir, "titles.yaml")
	assert.NilError(t, os.WriteFile(list, []byte("- one\n- two\n"), 0644))
	titles, err = LoadTitles(list)
	assert.NilError(t, err)
	assert.DeepEqual(t, titles, []string{"one", "two"})

	doc := filepath.Join(dir, "plan.yaml")
	assert.NilError(t, os.WriteFile(doc, []byte("title: plan\ntests:\n  - one\n"), 0644))
	titles, err = LoadTitles(doc)
	assert.NilError(t, err)
	assert.DeepEqual(t, titles, []string{"one"})

	_, err = LoadTitles(filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "unable to read titles")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test-plan.md")
	plan := samplePlan()

	assert.NilError(t, plan.WriteFile(path, false))
	err := plan.WriteFile(path, false)
	assert.ErrorContains(t, err, "already exists")
	assert.NilError(t, plan.WriteFile(path, true))

	content, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(content), "## Results"))
}
