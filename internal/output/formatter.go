package output

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Formatter renders listings, reports and latency summaries as aligned text
type Formatter struct {
	Verbose bool
	NoColor bool
	Colors  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		Colors:  colors,
	}
}

// NewFormatterWithFormat creates a new formatter with the specified output format
func NewFormatterWithFormat(format OutputFormat, verbose, noColor bool) FormatProvider {
	return GetFormatter(format, verbose, noColor)
}

func (f *Formatter) table(write func(w *tabwriter.Writer)) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	write(w)
	w.Flush()
	return buf.String()
}

// FormatList formats a listing as a two-column table
func (f *Formatter) FormatList(list ListData) string {
	var buf strings.Builder
	buf.WriteString(f.Colors.Header.Sprintf("%s (%d)", list.Name, len(list.Items)))
	buf.WriteString("\n")

	buf.WriteString(f.table(func(w *tabwriter.Writer) {
		for _, item := range list.Items {
			fmt.Fprintf(w, "  %s\t%s\n", item.Title, f.Colors.ID.Sprint(item.ID))
		}
	}))

	return buf.String()
}

// FormatReport formats a report as a header block followed by a data table
func (f *Formatter) FormatReport(report ReportData) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("%s Report %s (%s)\n",
		SuccessIcon(f.NoColor),
		f.Colors.Highlight.Sprint(report.ReportID),
		report.Suite))
	if report.Period != "" {
		buf.WriteString(fmt.Sprintf("  Period:  %s\n", report.Period))
	}
	if report.Segment != nil {
		buf.WriteString(fmt.Sprintf("  Segment: %s %s\n", report.Segment.Title, f.Colors.Muted.Sprintf("(%s)", report.Segment.ID)))
	}
	if f.Verbose {
		buf.WriteString(fmt.Sprintf("  Status:  %s\n", report.Status))
		buf.WriteString(fmt.Sprintf("  Timing:  queued %.2fs, ran %.2fs\n", report.Timing.Queue, report.Timing.Execution))
	}
	buf.WriteString("\n")

	buf.WriteString(f.table(func(w *tabwriter.Writer) {
		header := []string{f.Colors.Header.Sprint("name")}
		for _, col := range report.Columns {
			header = append(header, f.Colors.Header.Sprint(col.Title))
		}
		fmt.Fprintln(w, strings.Join(header, "\t"))

		for i, row := range report.Rows {
			cells := []string{row}
			for _, col := range report.Columns {
				value := cell(col.Values, i)
				if i < len(col.Values) {
					if _, ok := col.Values[i].(float64); ok {
						value = f.Colors.Number.Sprint(value)
					}
				}
				cells = append(cells, value)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	}))

	return buf.String()
}

// FormatStats formats a latency summary
func (f *Formatter) FormatStats(s StatsData) string {
	var buf strings.Builder
	buf.WriteString(f.Colors.Header.Sprint("API latency"))
	buf.WriteString("\n")

	failures := fmt.Sprintf("%d", s.Failures)
	if s.Failures > 0 {
		failures = f.Colors.Error.Sprint(failures)
	}

	buf.WriteString(f.table(func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "  Requests:\t%d\n", s.Requests)
		fmt.Fprintf(w, "  Failures:\t%s\n", failures)
		fmt.Fprintf(w, "  Min:\t%.2fms\n", s.Min)
		fmt.Fprintf(w, "  Mean:\t%.2fms\n", s.Mean)
		fmt.Fprintf(w, "  P50:\t%.2fms\n", s.P50)
		fmt.Fprintf(w, "  P95:\t%.2fms\n", s.P95)
		fmt.Fprintf(w, "  P99:\t%.2fms\n", s.P99)
		fmt.Fprintf(w, "  Max:\t%.2fms\n", s.Max)
	}))

	if p := s.Pacing; p != nil {
		buf.WriteString(f.Colors.Header.Sprint("API pacing"))
		buf.WriteString("\n")
		buf.WriteString(f.table(func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "  Limit:\t%g/s\n", p.RateLimit)
			fmt.Fprintf(w, "  Calls:\t%d\n", p.Calls)
			fmt.Fprintf(w, "  Waited:\t%.2fms\n", p.Waited)
		}))
	}

	return buf.String()
}

// FormatRaw pretty-prints a JSON body, colorized unless disabled
func (f *Formatter) FormatRaw(body gjson.Result) string {
	if !body.Exists() {
		return "\n"
	}
	out := pretty.Pretty([]byte(body.Raw))
	if !f.NoColor {
		out = pretty.Color(out, nil)
	}
	return string(out)
}

// indentJSON attempts to pretty-print a JSON string
func indentJSON(s string) string {
	return string(pretty.PrettyOptions([]byte(s), &pretty.Options{Width: 80, Indent: "  "}))
}
