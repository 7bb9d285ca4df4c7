package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"todaybox/internal/server"
	"todaybox/internal/tray"
	"todaybox/internal/view"
)

type todayDoc struct {
	Count     int           `yaml:"count"`
	UpdatedAt string        `yaml:"updatedAt"`
	Items     []todayDocRow `yaml:"items"`
}

type todayDocRow struct {
	ID         string  `yaml:"id"`
	Title      string  `yaml:"title"`
	Completed  bool    `yaml:"completed"`
	DueDate    *string `yaml:"dueDate,omitempty"`
	Recurrence *string `yaml:"recurrence,omitempty"`
}

func printToday(w io.Writer, payload view.TodayTasksPayload, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "yaml":
		doc := todayDoc{Count: payload.Count, UpdatedAt: payload.UpdatedAt.Format(time.RFC3339)}
		for _, it := range payload.Items {
			doc.Items = append(doc.Items, todayDocRow{
				ID:         it.ID,
				Title:      it.Title,
				Completed:  it.Completed,
				DueDate:    it.DueDate,
				Recurrence: it.RecurrenceLabel,
			})
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"", "Title", "Due", "Repeats", "ID"})
		for _, it := range payload.Items {
			done := ""
			if it.Completed {
				done = "✓"
			}
			tw.AppendRow(table.Row{done, it.Title, deref(it.DueDate), deref(it.RecurrenceLabel), it.ID})
		}
		tw.AppendFooter(table.Row{"", fmt.Sprintf("%d for today", payload.Count)})
		tw.Style().Format.Footer = text.FormatDefault
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func printTray(w io.Writer, entries []server.TrayEntryResponse) {
	for _, e := range entries {
		switch tray.Kind(e.Kind) {
		case tray.KindSeparator:
			fmt.Fprintln(w, "----")
		case tray.KindTask:
			line := "  " + e.Label
			if e.Sublabel != nil {
				line += "    " + *e.Sublabel
			}
			fmt.Fprintln(w, line)
		default:
			fmt.Fprintln(w, e.Label)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
