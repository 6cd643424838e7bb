package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Outcome classifies a single probe or check result.
type Outcome string

const (
	Pass  Outcome = "PASS"
	Fail  Outcome = "FAIL"
	Error Outcome = "ERROR"
	Skip  Outcome = "SKIP"
)

// Entry is one recorded result line: what was checked, how it went, and a
// short free-text detail (expected vs got, error text, ...).
type Entry struct {
	Name    string
	Outcome Outcome
	Detail  string
}

// Tally accumulates per-check outcomes in recording order and keeps the
// counters the summary reports.
type Tally struct {
	entries []Entry
	counts  map[Outcome]int
}

func NewTally() *Tally {
	return &Tally{counts: map[Outcome]int{}}
}

func (t *Tally) Record(name string, outcome Outcome, detail string) {
	t.entries = append(t.entries, Entry{Name: name, Outcome: outcome, Detail: detail})
	t.counts[outcome]++
}

func (t *Tally) Pass(name string, detail string)  { t.Record(name, Pass, detail) }
func (t *Tally) Fail(name string, detail string)  { t.Record(name, Fail, detail) }
func (t *Tally) Error(name string, err error)     { t.Record(name, Error, err.Error()) }
func (t *Tally) Skip(name string, detail string)  { t.Record(name, Skip, detail) }

func (t *Tally) Entries() []Entry { return t.entries }

func (t *Tally) Count(outcome Outcome) int { return t.counts[outcome] }

func (t *Tally) Total() int { return len(t.entries) }

// Succeeded reports whether the run as a whole passed: at least one entry,
// and nothing failed or errored.
func (t *Tally) Succeeded() bool {
	return len(t.entries) > 0 && t.counts[Fail] == 0 && t.counts[Error] == 0
}

// Render writes the result table followed by the counter line.
func (t *Tally) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 8, 8, 2, ' ', 0)
	for _, e := range t.entries {
		detail := e.Detail
		if detail == "" {
			detail = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Outcome, e.Name, detail); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", t.Summary())
	return err
}

// Summary returns the one-line counter summary, only naming outcomes that
// occurred so the common all-pass line stays short.
func (t *Tally) Summary() string {
	parts := []string{fmt.Sprintf("%d checks", len(t.entries))}
	present := make([]string, 0, len(t.counts))
	for outcome := range t.counts {
		present = append(present, string(outcome))
	}
	sort.Strings(present)
	for _, outcome := range present {
		parts = append(parts, fmt.Sprintf("%d %s", t.counts[Outcome(outcome)], strings.ToLower(outcome)))
	}
	return strings.Join(parts, ", ")
}
