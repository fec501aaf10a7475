package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/narrai/narrai-web/internal/domain/nav"
	httpx "github.com/narrai/narrai-web/internal/http"
)

type routeRow struct {
	Pattern string `json:"pattern"`
	View    string `json:"view"`
	Access  string `json:"access"`
	Layout  string `json:"layout"`
	Param   string `json:"param,omitempty"`
	Title   string `json:"title"`
}

func runRoutes(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the table as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := nav.Validate(); err != nil {
		return fmt.Errorf("route table: %w", err)
	}

	rows := routeRows()
	if *asJSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "PATTERN\tVIEW\tACCESS\tLAYOUT\tTITLE\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", r.Pattern, r.View, r.Access, r.Layout, r.Title); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func routeRows() []routeRow {
	routes := nav.Routes()
	rows := make([]routeRow, 0, len(routes))
	for _, r := range routes {
		layout := "layout"
		if r.Standalone {
			layout = "standalone"
		}
		rows = append(rows, routeRow{
			Pattern: httpx.PagePattern(r),
			View:    string(r.View),
			Access:  r.Access.String(),
			Layout:  layout,
			Param:   r.Param,
			Title:   r.Title,
		})
	}
	return rows
}
