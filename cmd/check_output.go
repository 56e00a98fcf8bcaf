package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/goobits/docs-engine-sub003/internal/metrics"
	"github.com/goobits/docs-engine-sub003/internal/report"
	"github.com/goobits/docs-engine-sub003/internal/stats"
)

// writeReport routes the report to stdout or to --output.
func (o *checkOptions) writeReport(w io.Writer, rep *report.Report, perf *stats.Stats, noColor bool) error {
	switch {
	case o.output != "":
		return o.writeFileReport(w, rep, perf)
	case o.format != "" && o.format != string(report.FormatText):
		data, err := report.FormatReport(rep, report.Format(o.format))
		if err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		text := &report.TextFormatter{Color: !noColor, ShowIgnored: o.showIgnored}
		data, err := text.Format(rep)
		if err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		fmt.Fprintln(w)
		if _, err := w.Write(data); err != nil {
			return err
		}
		if o.showStats {
			fmt.Fprint(w, perf.String())
		}
		return nil
	}
}

// writeFileReport writes the report to --output and prints a one-line
// summary to w.
func (o *checkOptions) writeFileReport(w io.Writer, rep *report.Report, perf *stats.Stats) error {
	if err := report.WriteToFile(rep, o.output); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fmt.Fprintf(w, "Wrote report to %s\n", o.output)
	printSummaryLine(w, rep)
	if o.showStats {
		fmt.Fprint(w, perf.String())
	}
	return nil
}

// writeMetrics writes the textfile exposition when --metrics-file is set.
func writeMetrics(m *metrics.Metrics, path string, logger *slog.Logger) error {
	if m == nil || path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	logger.Debug("wrote metrics", "path", path)
	return nil
}
