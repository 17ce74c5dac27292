package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	coreapp "ngstandalone/internal/core/app"
	"ngstandalone/internal/data/history"
	"ngstandalone/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
)

func renderSummary(result coreapp.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Standalone migration"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s: %d files, %d modules, %d candidates",
		result.TSConfig, result.FileCount, result.ModuleCount, result.CandidateCount)))
	b.WriteString("\n")

	if len(result.Report.Converted) > 0 {
		b.WriteString(fmt.Sprintf("\nConverted (%d)\n", len(result.Report.Converted)))
		for _, c := range result.Report.Converted {
			line := fmt.Sprintf("  %s %s -> %s (%s)", successStyle.Render("✓"), c.Module.Name, c.Artifact, c.Kind)
			if len(c.CarriedImports) > 0 {
				line += fmt.Sprintf(" imports [%s]", strings.Join(c.CarriedImports, ", "))
			}
			b.WriteString(line + "  " + statusStyle.Render(c.Module.File) + "\n")
		}
	}

	if len(result.Report.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped (%d)\n", len(result.Report.Skipped)))
		for _, s := range result.Report.Skipped {
			line := fmt.Sprintf("  %s %s: %s", skipStyle.Render("-"), s.Module.Name, s.Reason)
			if s.Detail != "" {
				line += " (" + s.Detail + ")"
			}
			b.WriteString(line + "  " + statusStyle.Render(s.Module.File) + "\n")
		}
	}

	if len(result.Collisions) > 0 {
		b.WriteString("\n")
		for _, name := range util.SortedStringKeys(result.Collisions) {
			files := make([]string, 0, len(result.Collisions[name]))
			for _, id := range result.Collisions[name] {
				files = append(files, id.File)
			}
			b.WriteString(skipStyle.Render(fmt.Sprintf("warning: %s is declared in %s", name, strings.Join(files, ", "))))
			b.WriteString("\n")
		}
	}

	for _, cycle := range result.Cycles {
		names := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			names = append(names, id.Name)
		}
		if len(cycle) > 0 {
			names = append(names, cycle[0].Name)
		}
		b.WriteString(statusStyle.Render("cycle: " + strings.Join(names, " -> ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case result.DryRun:
		b.WriteString(statusStyle.Render("dry run: no files written"))
	case len(result.Report.Converted) == 0:
		b.WriteString(statusStyle.Render("nothing to convert"))
	default:
		b.WriteString(successStyle.Render(fmt.Sprintf("%d files written", result.FilesWritten)))
		b.WriteString(statusStyle.Render(fmt.Sprintf(" in %s", result.Duration.Round(time.Millisecond))))
	}
	if result.RunID != "" {
		b.WriteString(statusStyle.Render(" (run " + result.RunID + ")"))
	}
	b.WriteString("\n")
	return b.String()
}

func renderHistory(runs []history.Run) string {
	if len(runs) == 0 {
		return statusStyle.Render("no recorded runs") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Last %d runs", len(runs))))
	b.WriteString("\n")
	for _, run := range runs {
		b.WriteString(fmt.Sprintf("%s  %s  converted=%d skipped=%d written=%d  %s\n",
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.ID,
			run.ConvertedCount(),
			run.SkippedCount(),
			run.FilesWritten,
			statusStyle.Render(run.TSConfig),
		))
		for _, e := range run.Entries {
			if e.Converted() {
				b.WriteString(fmt.Sprintf("    %s %s -> %s\n", successStyle.Render("✓"), e.Module, e.Artifact))
			} else {
				b.WriteString(fmt.Sprintf("    %s %s: %s\n", skipStyle.Render("-"), e.Module, e.Reason))
			}
		}
	}
	return b.String()
}
