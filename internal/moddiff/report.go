package moddiff

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render writes the comparison as an aligned text report. mismatchOnly
// drops the rows where both sides agree, which on rancher-sized go.mod
// files is most of them.
func (d *Diff) Render(w io.Writer, mismatchOnly bool) error {
	if _, err := fmt.Fprintf(w, "Comparing %s (left) with %s (right)\n\n", d.Left, d.Right); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 8, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "MODULE\tLEFT\tRIGHT\tVERDICT\n")
	for _, row := range d.Rows {
		if mismatchOnly && row.Verdict == Match {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Path, orDash(row.Left), orDash(row.Right), row.Verdict)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d modules compared, %d match, %d mismatch, %d only-left, %d only-right\n",
		len(d.Rows), d.Count(Match), d.Count(Mismatch), d.Count(OnlyLeft), d.Count(OnlyRight))
	return err
}

func orDash(version string) string {
	if version == "" {
		return "-"
	}
	return version
}
