package app

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"countdown-quiz/internal/domain"
)

// ComputeSummary classifies every question as correct, wrong or unattempted.
// Percentage is taken over all questions and rounded to two decimals.
func ComputeSummary(attempt domain.Attempt, correct []domain.Option) domain.Summary {
	summary := domain.Summary{Total: len(correct)}
	for i, want := range correct {
		got := selectedAt(attempt, i)
		switch {
		case got == domain.NoAnswer:
			summary.Unattempted++
		case got == want:
			summary.Correct++
		default:
			summary.Wrong++
		}
	}
	summary.Attempted = summary.Correct + summary.Wrong
	if summary.Total > 0 {
		pct := float64(summary.Correct) / float64(summary.Total) * 100
		summary.Percentage = math.Round(pct*100) / 100
	}
	return summary
}

// GenerateReport builds the review sheet: one row per missed or guessed
// question, in presentation order. Correct answers that were not flagged as
// guesses are left out.
func GenerateReport(attempt domain.Attempt, correct []domain.Option) domain.Report {
	summary := ComputeSummary(attempt, correct)

	rows := make([]domain.ReportRow, 0)
	for i, want := range correct {
		got := selectedAt(attempt, i)
		guessed := i < len(attempt.Guessed) && attempt.Guessed[i]
		if got == want && !guessed {
			continue
		}
		seconds := 0
		if i < len(attempt.Seconds) {
			seconds = attempt.Seconds[i]
		}
		rows = append(rows, domain.ReportRow{
			Number:  i + 1,
			Answer:  got,
			Correct: want,
			Seconds: seconds,
			Guessed: guessed,
		})
	}

	return domain.Report{
		FileName: domain.ReportFileName,
		Summary:  summary,
		Rows:     rows,
		Body:     renderReport(summary, rows),
	}
}

func selectedAt(attempt domain.Attempt, i int) domain.Option {
	if i < len(attempt.Selected) {
		return attempt.Selected[i]
	}
	return domain.NoAnswer
}

func renderReport(summary domain.Summary, rows []domain.ReportRow) string {
	var b strings.Builder
	fmt.Fprintln(&b, "Quiz Report")
	fmt.Fprintf(&b, "Total questions: %d\n", summary.Total)
	fmt.Fprintf(&b, "Correct: %d\n", summary.Correct)
	fmt.Fprintf(&b, "Wrong: %d\n", summary.Wrong)
	fmt.Fprintf(&b, "Attempted: %d\n", summary.Attempted)
	fmt.Fprintf(&b, "Unattempted: %d\n", summary.Unattempted)
	fmt.Fprintf(&b, "Percentage: %.2f%%\n\n", summary.Percentage)

	if len(rows) == 0 {
		fmt.Fprintln(&b, "Nothing to review.")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Q.No\tYour Answer\tCorrect Answer\tTime (s)\tGuessed")
	for _, row := range rows {
		answer := "Not Answered"
		if row.Answer != domain.NoAnswer {
			answer = fmt.Sprint(int(row.Answer))
		}
		guessed := "No"
		if row.Guessed {
			guessed = "Yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", row.Number, answer, int(row.Correct), row.Seconds, guessed)
	}
	_ = tw.Flush()
	return b.String()
}
