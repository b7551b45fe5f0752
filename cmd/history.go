package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List past practice sessions, or the turns of one session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 1 {
			return printTurns(cmd, s.EventRepo(), args[0])
		}

		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := s.EventRepo().QueryPracticeSummaries(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No practice sessions yet.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-24s  %-12s  %5s  %5s  %s\n",
			"Session", "Started", "Scene", "Level", "Turns", "Score", "Result")
		fmt.Println(strings.Repeat("─", 120))
		for _, ps := range sessions {
			fmt.Printf("%-36s  %-16s  %-24s  %-12s  %5d  %5d  %s\n",
				ps.SessionID,
				ps.StartedAt.Local().Format("2006-01-02 15:04"),
				truncate(ps.SceneTitle, 24),
				ps.Difficulty,
				ps.Turns,
				ps.FinalScore,
				result(ps),
			)
		}
		return nil
	},
}

func printTurns(cmd *cobra.Command, repo store.EventRepo, sessionID string) error {
	turns, err := repo.QueryTurns(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("query turns: %w", err)
	}
	if len(turns) == 0 {
		return fmt.Errorf("no turns recorded for session %s", sessionID)
	}

	sep := strings.Repeat("─", 60)
	for _, t := range turns {
		fmt.Println(sep)
		fmt.Printf("Turn %d  score %d  (running %d)\n", t.Turn, t.TurnScore, t.RunningMean)
		fmt.Println(sep)
		fmt.Printf("You:      %s\n", t.Utterance)
		fmt.Printf("Partner:  %s\n", t.Reply)
		fmt.Printf("Scores:   communication %d, accuracy %d, scenario %d, fluency %d\n",
			t.Communication, t.Accuracy, t.Scenario, t.Fluency)
		if t.NonTargetLanguage {
			fmt.Println("Note:     reply was not in English (penalty applied)")
		}
		if t.Feedback != "" {
			fmt.Printf("Feedback: %s\n", t.Feedback)
		}
	}
	return nil
}

func result(ps store.PracticeSummary) string {
	switch ps.Status {
	case store.StatusCompleted:
		if ps.Passed {
			return "passed"
		}
		return "not passed"
	case store.StatusAbandoned:
		return "left early"
	default:
		return "in progress"
	}
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
}
