// Package moddiff compares the dependency versions of two go.mod
// files, typically the rancher/rancher and rancher/steve modules of a
// deployment under test, and reports where they diverge.
package moddiff

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
)

// A Module is one parsed go.mod with its requirements resolved to the
// versions that are effective after replace directives are applied.
// Rancher go.mod files are replace-heavy, so comparing the raw require
// stanzas would report stale versions.
type Module struct {
	// Name identifies the side in the report, defaulting to the module
	// path declared in the file.
	Name     string
	Versions map[string]string
	Indirect map[string]bool
}

// Verdict classifies one dependency row of the comparison.
type Verdict string

const (
	Match     Verdict = "match"
	Mismatch  Verdict = "mismatch"
	OnlyLeft  Verdict = "only-left"
	OnlyRight Verdict = "only-right"
)

// Row is the comparison result for one module path. Absent versions
// are empty strings.
type Row struct {
	Path    string
	Left    string
	Right   string
	Verdict Verdict
}

// Diff holds the full comparison between two modules, rows sorted by
// module path.
type Diff struct {
	Left  string
	Right string
	Rows  []Row
}

// Fetch loads a go.mod from a local path or an http(s) URL, such as
// the raw GitHub URL of a release branch.
func Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchURL(ctx, source)
	}
	content, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", source, err)
	}
	return content, nil
}

func fetchURL(ctx context.Context, source string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %q: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch %q: %s", source, resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %q: %w", source, err)
	}
	return content, nil
}

// Parse reads the require stanzas of a go.mod and applies its replace
// directives, so the recorded versions are the ones the build would
// actually use. A filesystem replace has no version, it is recorded
// as the target path itself.
func Parse(source string, content []byte) (*Module, error) {
	file, err := modfile.Parse(source, content, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %q: %w", source, err)
	}

	module := &Module{
		Name:     source,
		Versions: map[string]string{},
		Indirect: map[string]bool{},
	}
	if file.Module != nil && file.Module.Mod.Path != "" {
		module.Name = file.Module.Mod.Path
	}

	for _, require := range file.Require {
		module.Versions[require.Mod.Path] = require.Mod.Version
		module.Indirect[require.Mod.Path] = require.Indirect
	}
	for _, replace := range file.Replace {
		if _, required := module.Versions[replace.Old.Path]; !required {
			continue
		}
		// a versioned replace only applies to that exact version
		if replace.Old.Version != "" && replace.Old.Version != module.Versions[replace.Old.Path] {
			continue
		}
		if replace.New.Version == "" {
			module.Versions[replace.Old.Path] = replace.New.Path
			continue
		}
		if replace.New.Path != replace.Old.Path {
			module.Versions[replace.Old.Path] = fmt.Sprintf("%s@%s", replace.New.Path, replace.New.Version)
		} else {
			module.Versions[replace.Old.Path] = replace.New.Version
		}
	}
	return module, nil
}

// Load fetches and parses one go.mod source.
func Load(ctx context.Context, source string) (*Module, error) {
	content, err := Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return Parse(source, content)
}

// Compare diffs two modules over the union of their dependency paths.
// directOnly drops dependencies marked indirect on both sides.
func Compare(left *Module, right *Module, directOnly bool) *Diff {
	paths := map[string]bool{}
	for path := range left.Versions {
		paths[path] = true
	}
	for path := range right.Versions {
		paths[path] = true
	}

	diff := &Diff{Left: left.Name, Right: right.Name}
	for path := range paths {
		if directOnly && left.Indirect[path] && right.Indirect[path] {
			continue
		}
		leftVersion := left.Versions[path]
		rightVersion := right.Versions[path]
		row := Row{Path: path, Left: leftVersion, Right: rightVersion}
		switch {
		case leftVersion == "":
			row.Verdict = OnlyRight
		case rightVersion == "":
			row.Verdict = OnlyLeft
		case leftVersion == rightVersion:
			row.Verdict = Match
		default:
			row.Verdict = Mismatch
		}
		diff.Rows = append(diff.Rows, row)
	}
	sort.Slice(diff.Rows, func(i, j int) bool { return diff.Rows[i].Path < diff.Rows[j].Path })
	return diff
}

// Count returns the number of rows with the given verdict.
func (d *Diff) Count(verdict Verdict) int {
	count := 0
	for _, row := range d.Rows {
		if row.Verdict == verdict {
			count++
		}
	}
	return count
}
