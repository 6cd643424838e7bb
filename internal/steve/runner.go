package steve

import (
	"context"
	"fmt"
	"io"

	"github.com/brudnak/rancher-test-scripts/internal/report"
)

// RunChecks runs the checks in order, recording one tally entry per
// check and mirroring each outcome as a line on out. A check whose
// request fails is recorded as an error, not a failure, and does not
// stop the run.
func RunChecks(ctx context.Context, client *Client, checks []Check, out io.Writer) *report.Tally {
	tally := report.NewTally()
	for _, check := range checks {
		if err := check.Validate(); err != nil {
			tally.Error(check.Name, err)
			fmt.Fprintf(out, "ERROR %s: %s\n", check.Name, err)
			continue
		}
		passed, detail, err := check.Run(ctx, client)
		switch {
		case err != nil:
			tally.Error(check.Name, err)
			fmt.Fprintf(out, "ERROR %s: %s\n", check.Name, err)
		case passed:
			tally.Pass(check.Name, detail)
			fmt.Fprintf(out, "PASS %s: %s\n", check.Name, detail)
		default:
			tally.Fail(check.Name, detail)
			fmt.Fprintf(out, "FAIL %s: %s\n", check.Name, detail)
		}
	}
	return tally
}
