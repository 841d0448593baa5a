package s3website

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize/english"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3website/s3types"
)

// WriteReport renders report as a table with one column per outcome category.
func WriteReport(w io.Writer, report *s3types.DeployReport) error {
	if report == nil || report.Result == nil || report.Result.Empty() {
		if _, err := fmt.Fprintln(w, "There were no changes to deploy"); err != nil {
			return err
		}
		return writeSite(w, report)
	}

	r := report.Result
	columns := [][]string{r.Uploaded, r.Updated, r.Removed, r.Errors}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Deployment Report")
	fmt.Fprintln(tw, "UPLOADED\tUPDATED\tREMOVED\tERRORS")

	rows := 0
	for _, col := range columns {
		rows = max(rows, len(col))
	}
	for i := range rows {
		for j, col := range columns {
			if i < len(col) {
				fmt.Fprint(tw, col[i])
			}
			if j < len(columns)-1 {
				fmt.Fprint(tw, "\t")
			}
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	changed := len(r.Uploaded) + len(r.Updated) + len(r.Removed)
	summary := fmt.Sprintf("%s changed", english.Plural(changed, "file", "files"))
	if r.HasErrors() {
		summary += fmt.Sprintf(", %s", english.Plural(len(r.Errors), "error", "errors"))
	}
	if report.Duration > 0 {
		summary += fmt.Sprintf(" in %s", report.Duration.Round(time.Millisecond))
	}
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return err
	}

	return writeSite(w, report)
}

func writeSite(w io.Writer, report *s3types.DeployReport) error {
	if report == nil || report.Site == nil || report.Site.URL == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "Site: %s\n", report.Site.URL)
	return err
}
