package moddiff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common/testutils"
)

func TestCmdModDiff_ValidateInput(t *testing.T) {
	testTable := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{
			name: "two sources",
			args: []string{"a/go.mod", "b/go.mod"},
		},
		{
			name:          "no sources",
			args:          []string{},
			expectedError: "moddiff needs exactly two go.mod sources, got 0",
		},
		{
			name:          "one source",
			args:          []string{"a/go.mod"},
			expectedError: "moddiff needs exactly two go.mod sources, got 1",
		},
		{
			name:          "blank source",
			args:          []string{"a/go.mod", " "},
			expectedError: "a go.mod source must not be empty",
		},
	}

	for _, test := range testTable {
		t.Run(test.name, func(t *testing.T) {
			testutils.CheckValidateInput(t, &CmdModDiff{}, test.expectedError, test.args)
		})
	}
}

func TestCmdModDiff_Run(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.mod")
	right := filepath.Join(dir, "right.mod")
	assert.NilError(t, os.WriteFile(left, []byte("module example.com/left\n\nrequire github.com/rancher/steve v0.2.1\n"), 0644))
	assert.NilError(t, os.WriteFile(right, []byte("module example.com/right\n\nrequire github.com/rancher/steve v0.3.0\n"), 0644))

	reportPath := filepath.Join(dir, "report.txt")
	cmd := &CmdModDiff{Flags: ModDiffFlags{output: reportPath, timeout: time.Minute}}
	assert.NilError(t, cmd.ValidateInput([]string{left, right}))
	cmd.InputToOptions()
	assert.NilError(t, cmd.Run())

	content, err := os.ReadFile(reportPath)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(content), "github.com/rancher/steve"))
	assert.Assert(t, strings.Contains(string(content), "mismatch"))
}

func TestCmdModDiff_RunFailOnMismatch(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.mod")
	right := filepath.Join(dir, "right.mod")
	assert.NilError(t, os.WriteFile(left, []byte("module example.com/left\n\nrequire github.com/rancher/steve v0.2.1\n"), 0644))
	assert.NilError(t, os.WriteFile(right, []byte("module example.com/right\n\nrequire github.com/rancher/steve v0.3.0\n"), 0644))

	cmd := &CmdModDiff{Flags: ModDiffFlags{failOnMismatch: true, timeout: time.Minute}}
	assert.NilError(t, cmd.ValidateInput([]string{left, right}))
	err := cmd.Run()
	assert.ErrorContains(t, err, "1 dependency versions differ")

	cmd = &CmdModDiff{Flags: ModDiffFlags{failOnMismatch: true, timeout: time.Minute}}
	assert.NilError(t, cmd.ValidateInput([]string{left, left}))
	assert.NilError(t, cmd.Run())
}

func TestCmdModDiff_RunMissingSource(t *testing.T) {
	cmd := &CmdModDiff{Flags: ModDiffFlags{timeout: time.Minute}}
	assert.NilError(t, cmd.ValidateInput([]string{"missing-left.mod", "missing-right.mod"}))
	assert.ErrorContains(t, cmd.Run(), "unable to read")
}
