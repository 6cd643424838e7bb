package report

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brudnak/rancher-test-scripts/internal/utils"
)

// LogDir is the timestamped directory a probe run writes its artifacts into:
// one log file per probed pod or check plus a summary file.
type LogDir struct {
	Path string
}

// NewLogDir creates <base>-<YYYYMMDDHHMMSS>-<runid> under the working
// directory, or exactly the given override when one was supplied on the
// command line. The run id keeps two runs started within the same
// second from mixing their artifacts.
func NewLogDir(base string, override string) (*LogDir, error) {
	runID := strings.Split(uuid.NewString(), "-")[0]
	path := utils.DefaultStr(override,
		fmt.Sprintf("%s-%s-%s", base, time.Now().Format("20060102150405"), runID))
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory %q: %w", path, err)
	}
	return &LogDir{Path: path}, nil
}

// WriteFile stores content under the directory, sanitizing the name so pod
// names with path separators cannot escape it.
func (d *LogDir) WriteFile(name string, content []byte) (string, error) {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	path := filepath.Join(d.Path, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("unable to write %q: %w", path, err)
	}
	return path, nil
}

// WriteSummary renders the tally into summary.txt inside the directory.
func (d *LogDir) WriteSummary(t *Tally) (string, error) {
	var b strings.Builder
	if err := t.Render(&b); err != nil {
		return "", err
	}
	return d.WriteFile("summary.txt", []byte(b.String()))
}

// Archive packs the directory into <dir>.tar.gz next to it and returns the
// archive path. The directory itself is left in place.
func (d *LogDir) Archive() (string, error) {
	archivePath := d.Path + ".tar.gz"
	tarFile, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("unable to create archive %q: %w", archivePath, err)
	}
	defer tarFile.Close()

	gz := gzip.NewWriter(tarFile)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writeTarEntry(tw, d.Path, name); err != nil {
			return "", err
		}
	}
	return archivePath, nil
}

func writeTarEntry(tw *tar.Writer, dir string, name string) error {
	path := filepath.Join(dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:    filepath.Join(filepath.Base(dir), name),
		Mode:    0600,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
