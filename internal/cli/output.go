package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Output печатает результат команды таблицей или JSON.
//
// Данные идут в stdout, пояснения в stderr. В JSON-режиме пояснения
// подавлены, чтобы stdout и stderr можно было разбирать скриптом.
type Output struct {
	jsonMode bool
	data     io.Writer
	notes    io.Writer
}

// NewOutput пишет в os.Stdout и os.Stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo пишет в заданные writer'ы.
func NewOutputTo(jsonMode bool, data, notes io.Writer) *Output {
	return &Output{jsonMode: jsonMode, data: data, notes: notes}
}

// Print выводит rows под заголовками headers, а в JSON-режиме v.
func (o *Output) Print(headers []string, rows [][]string, v any) error {
	if o.jsonMode {
		enc := json.NewEncoder(o.data)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(o.data, 0, 0, 2, ' ', 0)
	writeRow(tw, headers)
	writeRow(tw, underline(headers))
	for _, row := range rows {
		writeRow(tw, row)
	}
	return tw.Flush()
}

// Note печатает пояснение в stderr (только в табличном режиме).
func (o *Output) Note(msg string) {
	if o.jsonMode {
		return
	}
	fmt.Fprintln(o.notes, msg)
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func underline(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.Repeat("-", len(h))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// formatTime: RFC3339 или "-" для незавершённого.
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
