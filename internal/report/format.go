package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

type Formatter struct{}

func NewFormatter() Formatter {
	return Formatter{}
}

func (f Formatter) Format(report Report, format Format) (string, error) {
	switch format {
	case FormatTable:
		return formatTable(report), nil
	case FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload) + "\n", nil
	case FormatSARIF:
		return formatSARIF(report)
	default:
		return "", ErrUnknownFormat
	}
}

func formatTable(report Report) string {
	if len(report.Scripts) == 0 {
		return formatEmpty(report)
	}

	var buffer bytes.Buffer
	appendSummary(&buffer, report.Summary)

	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(writer, strings.Join([]string{"Script", "Modules", "Unresolved", "Size", "Hash"}, "\t"))
	for _, script := range report.Scripts {
		_, _ = fmt.Fprintln(writer, formatTableRow(script))
	}
	_ = writer.Flush()

	appendUnresolved(&buffer, report.Scripts)
	appendSkipped(&buffer, report.Skipped)
	appendWarnings(&buffer, report)
	return buffer.String()
}

func appendSummary(buffer *bytes.Buffer, summary *Summary) {
	if summary == nil {
		return
	}
	_, _ = fmt.Fprintf(
		buffer,
		"Summary: %d scripts, %d modules bundled, %d unresolved imports, %d skipped\n\n",
		summary.ScriptCount,
		summary.ModuleCount,
		summary.UnresolvedCount,
		summary.SkippedCount,
	)
}

func formatTableRow(script ScriptReport) string {
	return strings.Join([]string{
		script.File,
		fmt.Sprintf("%d", len(script.Bundled)),
		fmt.Sprintf("%d", len(script.Unresolved)),
		formatBytes(int64(script.Bytes)),
		shortHash(script.Hash),
	}, "\t")
}

func formatEmpty(report Report) string {
	var buffer bytes.Buffer
	buffer.WriteString("No scripts to bundle.\n")
	appendSkipped(&buffer, report.Skipped)
	appendWarnings(&buffer, report)
	return buffer.String()
}

func appendUnresolved(buffer *bytes.Buffer, scripts []ScriptReport) {
	var lines []string
	for _, script := range scripts {
		for _, item := range script.Unresolved {
			lines = append(lines, fmt.Sprintf("- %s: %s (required by %s)", script.File, item.Import, item.File))
		}
		if script.SyntaxErr != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", script.File, script.SyntaxErr))
		}
	}
	if len(lines) == 0 {
		return
	}
	buffer.WriteString("\nProblems:\n")
	buffer.WriteString(strings.Join(lines, "\n"))
	buffer.WriteString("\n")
}

func appendSkipped(buffer *bytes.Buffer, skipped []SkippedEntry) {
	if len(skipped) == 0 {
		return
	}
	buffer.WriteString("\nSkipped:\n")
	for _, item := range skipped {
		buffer.WriteString(fmt.Sprintf("- %s (matched %s)\n", item.File, item.Pattern))
	}
}

func appendWarnings(buffer *bytes.Buffer, report Report) {
	if len(report.Warnings) == 0 {
		return
	}
	buffer.WriteString("\nWarnings:\n")
	for _, warning := range report.Warnings {
		buffer.WriteString("- ")
		buffer.WriteString(warning)
		buffer.WriteString("\n")
	}
}

func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func formatBytes(value int64) string {
	const unit = 1024
	if value < unit {
		return fmt.Sprintf("%d B", value)
	}
	div, exp := int64(unit), 0
	for n := value / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(value)/float64(div), "KMGTPE"[exp])
}
