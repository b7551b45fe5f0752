package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show practice statistics per difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sessions, err := s.EventRepo().QueryPracticeSummaries(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No practice sessions yet.")
			return nil
		}

		stats := aggregate(sessions)
		fmt.Printf("%-14s  %8s  %9s  %6s  %6s  %8s  %s\n",
			"Level", "Sessions", "Completed", "Passed", "Best", "Average", "Grade")
		fmt.Println(strings.Repeat("─", 72))
		for _, d := range practice.AllDifficulties() {
			st := stats[string(d)]
			best, avg, grade := "-", "-", "-"
			if st.completed > 0 {
				best = fmt.Sprint(st.best)
				mean := st.total / st.completed
				avg = fmt.Sprint(mean)
				grade = scoring.Grade(st.best)
			}
			fmt.Printf("%-14s  %8d  %9d  %6d  %6s  %8s  %s\n",
				d.DisplayName(), st.sessions, st.completed, st.passed, best, avg, grade)
		}
		return nil
	},
}

type levelStats struct {
	sessions  int
	completed int
	passed    int
	best      int
	total     int
}

// aggregate groups sessions by difficulty. Only completed sessions count
// toward best and average.
func aggregate(sessions []store.PracticeSummary) map[string]levelStats {
	out := make(map[string]levelStats)
	for _, ps := range sessions {
		st := out[ps.Difficulty]
		st.sessions++
		if ps.Status == store.StatusCompleted {
			st.completed++
			st.total += ps.FinalScore
			st.best = max(st.best, ps.FinalScore)
			if ps.Passed {
				st.passed++
			}
		}
		out[ps.Difficulty] = st
	}
	return out
}
