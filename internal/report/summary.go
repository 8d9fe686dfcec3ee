package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/motivsim/internal/sim"
	"github.com/abhisek/motivsim/internal/store"
)

// DefaultWidth is the summary card width.
const DefaultWidth = 56

// maxFailures caps the failures listed in a summary.
const maxFailures = 5

// Summary renders a run result. kcs is the number of KCs in the domain and
// scales the mastery bar.
func Summary(res *sim.Result, kcs int) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Simulation "+shortID(res.BatchID)))
	lines = append(lines, "")
	lines = append(lines,
		row("Mode", string(res.Mode)),
		row("Learners", strconv.Itoa(len(res.Learners))),
		row("Turns", strconv.Itoa(res.Turns())),
		row("Elapsed", res.Elapsed.Round(time.Millisecond).String()),
		"",
	)
	for _, st := range []sim.Status{sim.StatusCompleted, sim.StatusStopped, sim.StatusFailed} {
		lines = append(lines, labelStyle.Render(string(st))+statusStyle(string(st)).Render(strconv.Itoa(res.Count(st))))
	}

	if kcs > 0 && len(res.Learners) > 0 {
		var mastered int
		for _, lr := range res.Learners {
			mastered += lr.Mastered
		}
		pct := float64(mastered) / float64(kcs*len(res.Learners))
		lines = append(lines, "", Bar{Label: "Mastered", Percent: pct, Width: DefaultWidth - 4}.View())
	}

	var failures []string
	for _, lr := range res.Learners {
		if lr.Err == nil || lr.Status != sim.StatusFailed {
			continue
		}
		if len(failures) == maxFailures {
			failures = append(failures, fmt.Sprintf("... and %d more", res.Count(sim.StatusFailed)-maxFailures))
			break
		}
		failures = append(failures, statusStyle("failed").Render(shortID(lr.StudentID))+" "+lr.Err.Error())
	}
	if len(failures) > 0 {
		lines = append(lines, "")
		lines = append(lines, failures...)
	}

	return cardStyle.Width(DefaultWidth).Render(strings.Join(lines, "\n"))
}

// Stats renders per-student aggregates as a table.
func Stats(stats []store.StudentStats) string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.StudentID,
			strconv.Itoa(s.Transactions),
			strconv.Itoa(s.Attempts),
			fmt.Sprintf("%.0f%%", s.Accuracy()*100),
			strconv.Itoa(s.Hints),
			strconv.Itoa(s.Idle),
			s.Time.Round(time.Second).String(),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Student", "Txns", "Inputs", "Correct", "Hints", "Idle", "Time").
		Rows(rows...)
	return t.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
