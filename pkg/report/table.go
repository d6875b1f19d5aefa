package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable renders both averaged lists for the terminal.
func WriteTable(w io.Writer, doc Document) error {
	if doc.CompletedRounds < doc.Rounds {
		if _, err := fmt.Fprintf(w, "[!] Partial run: %d of %d rounds completed\n\n", doc.CompletedRounds, doc.Rounds); err != nil {
			return err
		}
	}
	if err := writeSection(w, fmt.Sprintf("[Top %d CPU, averaged over %d rounds]", doc.TopN, doc.CompletedRounds),
		"CPU(ticks)", doc.TopCPU, func(e Entry) float64 { return e.CPU }); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeSection(w, fmt.Sprintf("[Top %d Memory, averaged over %d rounds]", doc.TopN, doc.CompletedRounds),
		"MEM(MB)", doc.TopMemory, func(e Entry) float64 { return e.Memory })
}

func writeSection(w io.Writer, title, column string, rows []Entry, value func(Entry) float64) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No processes sampled")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "PID\tCOMM\t%s\tSEEN\n", column)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", row.PID, row.Name, value(row), row.Appearances)
	}
	return tw.Flush()
}
