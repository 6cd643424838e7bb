package report

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestTally(t *testing.T) {
	tally := NewTally()
	tally.Pass("filter=metadata.name=app1", "1 item")
	tally.Fail("limit=3", "expected 3 items, got 5")
	tally.Skip("sort=-metadata.name", "endpoint disabled")

	assert.Equal(t, tally.Total(), 3)
	assert.Equal(t, tally.Count(Pass), 1)
	assert.Equal(t, tally.Count(Fail), 1)
	assert.Equal(t, tally.Count(Skip), 1)
	assert.Equal(t, tally.Count(Error), 0)
	assert.Assert(t, !tally.Succeeded())

	var b strings.Builder
	assert.NilError(t, tally.Render(&b))
	out := b.String()
	assert.Assert(t, strings.Contains(out, "PASS"), out)
	assert.Assert(t, strings.Contains(out, "expected 3 items, got 5"), out)
	assert.Assert(t, strings.Contains(out, "3 checks, 1 fail, 1 pass, 1 skip"), out)
}

func TestTallySucceeded(t *testing.T) {
	tally := NewTally()
	assert.Assert(t, !tally.Succeeded(), "empty tally must not count as success")

	tally.Pass("a", "")
	tally.Pass("b", "")
	assert.Assert(t, tally.Succeeded())

	tally.Error("c", os.ErrNotExist)
	assert.Assert(t, !tally.Succeeded())
}

func TestLogDir(t *testing.T) {
	tmp := t.TempDir()

	dir, err := NewLogDir("ignored", filepath.Join(tmp, "run-1"))
	assert.NilError(t, err)

	path, err := dir.WriteFile("rancher-abc123.log", []byte("sl output\n"))
	assert.NilError(t, err)
	content, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(content), "sl output\n")

	// names with separators must stay inside the directory
	path, err = dir.WriteFile("../escape.log", []byte("x"))
	assert.NilError(t, err)
	assert.Equal(t, filepath.Dir(path), dir.Path)

	tally := NewTally()
	tally.Pass("rancher-abc123", "port 443 listening")
	summaryPath, err := dir.WriteSummary(tally)
	assert.NilError(t, err)
	content, err = os.ReadFile(summaryPath)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(content), "1 checks, 1 pass"))
}

func TestLogDirTimestamped(t *testing.T) {
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	assert.NilError(t, err)
	assert.NilError(t, os.Chdir(tmp))
	defer os.Chdir(cwd)

	dir, err := NewLogDir("rprobe-portcheck", "")
	assert.NilError(t, err)
	base := filepath.Base(dir.Path)
	assert.Assert(t, strings.HasPrefix(base, "rprobe-portcheck-"), base)
	// 14-digit datetime plus an 8-character run id
	assert.Equal(t, len(base), len("rprobe-portcheck-")+14+1+8)
}

func TestLogDirUniquePerRun(t *testing.T) {
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	assert.NilError(t, err)
	assert.NilError(t, os.Chdir(tmp))
	defer os.Chdir(cwd)

	first, err := NewLogDir("rprobe-vai", "")
	assert.NilError(t, err)
	second, err := NewLogDir("rprobe-vai", "")
	assert.NilError(t, err)
	// two runs within the same second must not share a directory
	assert.Assert(t, first.Path != second.Path, "both runs got %s", first.Path)
}

func TestArchive(t *testing.T) {
	tmp := t.TempDir()
	dir, err := NewLogDir("ignored", filepath.Join(tmp, "run"))
	assert.NilError(t, err)
	_, err = dir.WriteFile("pod-a.log", []byte("aaa"))
	assert.NilError(t, err)
	_, err = dir.WriteFile("summary.txt", []byte("1 checks, 1 pass"))
	assert.NilError(t, err)

	archivePath, err := dir.Archive()
	assert.NilError(t, err)

	f, err := os.Open(archivePath)
	assert.NilError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NilError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		assert.NilError(t, err)
		names = append(names, hdr.Name)
	}
	assert.DeepEqual(t, names, []string{"run/pod-a.log", "run/summary.txt"})
}
