package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func writeJSONLine(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// writeReport prints one line per person in id order.
func writeReport(w io.Writer, entries []services.ReportEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no persons stored")
		return err
	}
	for _, e := range entries {
		supervisors := "-"
		if len(e.Supervisors) > 0 {
			supervisors = strings.Join(e.Supervisors, ", ")
		}
		title := ""
		if e.Title != nil {
			title = *e.Title
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\tsupervisors: %s\n", e.ID, e.Name, title, supervisors); err != nil {
			return err
		}
	}
	return nil
}
