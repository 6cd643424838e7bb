// Package testplan generates the Markdown skeleton a manual test run
// is written up in: a results table up front and one expandable
// section per test.
package testplan

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// A Plan is the input to the generator.
type Plan struct {
	Title     string   `yaml:"title"`
	Tests     []string `yaml:"tests"`
	Generated time.Time
}

// Validate reports the first problem that would make the generated
// plan useless.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("the plan title must not be empty")
	}
	if len(p.Tests) == 0 {
		return fmt.Errorf("the plan needs at least one test title")
	}
	for i, test := range p.Tests {
		if strings.TrimSpace(test) == "" {
			return fmt.Errorf("test title %d is empty", i+1)
		}
	}
	return nil
}

// ParseTitles reads test titles from a listing, one per line. Blank
// lines and lines starting with # are skipped.
func ParseTitles(content []byte) []string {
	var titles []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	return titles
}

// LoadTitles reads test titles from a file: YAML (a list of strings,
// or a full plan document) when the extension says so, a plain text
// listing otherwise.
func LoadTitles(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read titles from %q: %w", path, err)
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var titles []string
		if err := yaml.Unmarshal(content, &titles); err == nil {
			return titles, nil
		}
		var plan Plan
		if err := yaml.Unmarshal(content, &plan); err != nil {
			return nil, fmt.Errorf("unable to parse %q: %w", path, err)
		}
		return plan.Tests, nil
	}
	return ParseTitles(content), nil
}

var planTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`# {{ .Title }}

Generated on {{ .Generated.Format "2006-01-02" }}.

## Results

| # | Test | Result | Notes |
|---|------|--------|-------|
{{- range $i, $test := .Tests }}
| {{ inc $i }} | {{ $test }} | Pending | |
{{- end }}

## Details
{{ range $i, $test := .Tests }}
<details>
<summary>{{ inc $i }}. {{ $test }}</summary>

**Steps**

1.

**Expected**

-

**Actual**

-

</details>
{{ end }}`))

// Render writes the Markdown skeleton. Output is deterministic for a
// fixed plan, the generation date being part of the plan.
func (p *Plan) Render(w io.Writer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return planTemplate.Execute(w, p)
}

// WriteFile renders the plan into path. An existing file is only
// replaced when force is set.
func (p *Plan) WriteFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%q already exists, use --force to overwrite it", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to write %q: %w", path, err)
	}
	if err := p.Render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
