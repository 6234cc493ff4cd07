package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ptoinfo/internal/domain/pto"
)

const barCells = 20

type styles struct {
	title  lipgloss.Style
	dim    lipgloss.Style
	panel  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	accent lipgloss.Style
}

func newStyles(noColor bool) styles {
	basePanel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		bold := lipgloss.NewStyle().Bold(true)
		return styles{
			title:  bold,
			dim:    lipgloss.NewStyle(),
			panel:  basePanel,
			label:  bold,
			value:  lipgloss.NewStyle(),
			ok:     bold,
			warn:   bold,
			bad:    bold,
			accent: bold,
		}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		panel:  basePanel.BorderForeground(lipgloss.Color("61")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		value:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		bad:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		accent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
	}
}

// renderView lays out a PTO view the way the browser card shows it: error
// banner, per leave type balances, totals, then request history.
func renderView(v pto.View, st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Paid time off: " + v.EmployeeID))
	b.WriteString("\n")

	if v.Loading {
		b.WriteString(st.dim.Render("Loading..."))
		b.WriteString("\n")
		return b.String()
	}
	if v.ErrorMessage != "" {
		b.WriteString(st.bad.Render(v.ErrorMessage))
		b.WriteString("\n")
	}
	if v.ShowNoRecords {
		b.WriteString(st.dim.Render("No leave records found."))
		b.WriteString("\n")
	}

	if v.HasLeaveSummaries {
		lines := make([]string, 0, len(v.LeaveSummaries))
		for _, s := range v.LeaveSummaries {
			lines = append(lines, summaryLine(s, st))
		}
		b.WriteString(st.panel.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	remaining := st.value
	if v.TotalBalanceClass == pto.BalanceError {
		remaining = st.bad
	}
	totals := []string{
		row(st, "Allocated hours", st.value.Render(v.TotalAllocatedHours)),
		row(st, "Hours off", st.value.Render(v.TotalHoursOff)),
		row(st, "Remaining hours", remaining.Render(v.TotalRemainingHours)),
		row(st, "Requests", st.value.Render(v.TotalRequests)),
		row(st, "Avg hours/request", st.value.Render(v.AverageHoursPerRequest)),
	}
	b.WriteString(st.panel.Render(strings.Join(totals, "\n")))
	b.WriteString("\n")

	if v.HasLeaveRecords && len(v.LeaveRecords.Records) > 0 {
		lines := make([]string, 0, len(v.LeaveRecords.Records))
		for _, r := range v.LeaveRecords.Records {
			lines = append(lines, fmt.Sprintf("%s  %s to %s  %g days  %s",
				r.LeaveTypeName,
				r.StartDate.Format("2006-01-02"),
				r.EndDate.Format("2006-01-02"),
				r.Days,
				st.dim.Render(r.Status),
			))
		}
		b.WriteString(st.panel.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}

func summaryLine(s pto.DisplaySummary, st styles) string {
	name := s.LeaveTypeName
	if name == "" {
		name = s.LeaveTypeID
	}
	barStyle := st.ok
	if s.UsagePercentage > 100 {
		barStyle = st.bad
	} else if s.UsagePercentage >= 80 {
		barStyle = st.warn
	}
	return fmt.Sprintf("%s %s %d%%  %s of %s h used, %s h left",
		st.label.Render(fmt.Sprintf("%-14s", name)),
		barStyle.Render(progressBar(s.ProgressWidth)),
		s.UsagePercentage,
		s.UsedHoursDisplay,
		s.AllocatedHoursDisplay,
		s.RemainingHoursDisplay,
	)
}

// progressBar draws a width percentage, already capped at 100, as cells.
func progressBar(width int) string {
	filled := max(0, min(barCells, width*barCells/100))
	return strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
}

func row(st styles, label, value string) string {
	return st.label.Render(fmt.Sprintf("%-18s", label)) + " " + value
}
