package vai

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// RenderTables writes the table inventory of a snapshot as an aligned
// two column listing.
func RenderTables(w io.Writer, counts []TableCount) error {
	tw := tabwriter.NewWriter(w, 8, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "TABLE\tROWS\n")
	for _, count := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", count.Name, count.Rows)
	}
	return tw.Flush()
}

// Render writes the result set as an aligned table, followed by the
// row count.
func (r *ResultSet) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 8, 8, 2, ' ', 0)
	for i, column := range r.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, column)
	}
	fmt.Fprintln(tw)
	for _, row := range r.Rows {
		for i, value := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, value)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d rows\n", len(r.Rows))
	return err
}
