package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

func printDryRunBanner() {
	if !dryRun {
		return
	}

	fmt.Println("=== DRY RUN - no changes will be made ===")
	fmt.Println()
}

func printCommandHeader(command, label, value string) {
	fmt.Printf("Command: %s\n", command)
	fmt.Printf("%s: %s\n", label, value)
}

func printSummary(headers []string, rows [][]string, aligns []columnAlignment) {
	fmt.Println("=== Summary ===")
	if len(rows) == 0 {
		return
	}
	fmt.Println(renderTable(headers, rows, aligns))
}

func printDryRunHint() {
	if !dryRun {
		return
	}

	fmt.Println()
	fmt.Println("Run without --dry-run to apply changes.")
}

func printDetailedOperations[T any](operations []T, printOperation func(T)) {
	if !verbose && !dryRun {
		return
	}

	for _, op := range operations {
		printOperation(op)
	}
	fmt.Println()
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if shouldColorize(os.Stdout) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressReporter draws one progress bar per workflow stage. It stays
// silent when the writer is not a terminal.
type progressReporter struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	stage   string
	bar     *progressbar.ProgressBar
}

func startProgress(out io.Writer) *progressReporter {
	return &progressReporter{
		out:     out,
		enabled: shouldColorize(out),
	}
}

func (p *progressReporter) Report(stage string, processed, total int) {
	if p == nil || !p.enabled || total <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.stage != stage {
		p.finishLocked()
		p.stage = stage
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(stage),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
	}

	_ = p.bar.Set(processed)
}

func (p *progressReporter) Stop() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *progressReporter) finishLocked() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
