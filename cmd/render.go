package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// Output formats for the analyze command.
const (
	outputJSON  = "json"
	outputTable = "table"
)

// renderResult writes res to w in the given format.
func renderResult(w io.Writer, res *domain.Result, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputTable:
		renderResultTable(w, res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderResultTable prints one row per rule hit with the verdict in the footer.
func renderResultTable(w io.Writer, res *domain.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s", res.URL)

	t.AppendHeader(table.Row{"Rule", "Weight", "Reason"})
	for _, hit := range res.Reasons {
		t.AppendRow(table.Row{hit.Name, hit.Weight, hit.Reason})
	}
	t.AppendFooter(table.Row{"Score", res.Score, fmt.Sprintf("%s (%s)", res.Verdict, res.Class)})

	t.Render()
}
