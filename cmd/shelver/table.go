package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. A positive maxWidth caps the column;
// keepTail trims from the left so the end of a path stays visible.
type column struct {
	header   string
	align    text.Align
	maxWidth int
	keepTail bool
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		}
		if col.maxWidth > 0 {
			configs[i].WidthMaxEnforcer = text.WrapSoft
			if col.keepTail {
				configs[i].WidthMaxEnforcer = trimLeft
			}
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// trimLeft keeps the last maxLen runes of value, marking the cut with an
// ellipsis.
func trimLeft(value string, maxLen int) string {
	runes := []rune(value)
	if maxLen <= 0 || len(runes) <= maxLen {
		return value
	}
	if maxLen == 1 {
		return "…"
	}
	return "…" + string(runes[len(runes)-maxLen+1:])
}
