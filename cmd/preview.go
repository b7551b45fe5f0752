package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Play a scene in plain text (no database)",
	Long: `Generate scenes and play one turn by turn on stdin.

This is a stateless developer tool: nothing is recorded. Useful for
evaluating scene quality and scoring prompts.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("level", "l", "beginner", "Difficulty: beginner, intermediate or advanced")
	previewCmd.Flags().Int("scenes", 0, "Only generate and print this many scenes")
}

func runPreview(cmd *cobra.Command, args []string) error {
	levelVal, _ := cmd.Flags().GetString("level")
	scenes, _ := cmd.Flags().GetInt("scenes")

	level, err := practice.ParseDifficulty(levelVal)
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg.Logging, "text", os.Stderr); err != nil {
		return err
	}

	// No EventRepo: provider calls are not recorded.
	ctx := cmd.Context()
	factory := newRunnerFactory(ctx, cfg, nil)
	if err := factory.Available(); err != nil {
		return err
	}

	if scenes > 0 {
		for i := 1; i <= scenes; i++ {
			r, err := factory.New("")
			if err != nil {
				return err
			}
			scene, err := r.Begin(ctx, level)
			if err != nil {
				fmt.Printf("Scene %d: generation failed: %v\n\n", i, err)
				continue
			}
			fmt.Printf("── Scene %d/%d ──\n", i, scenes)
			printScene(*scene)
			fmt.Println()
		}
		return nil
	}

	r, err := factory.New("")
	if err != nil {
		return err
	}
	fmt.Printf("Generating a %s scene...\n\n", level.DisplayName())
	scene, err := r.Begin(ctx, level)
	if err != nil {
		return err
	}
	printScene(*scene)
	if msg, ok := r.Snapshot().LastAssistant(); ok {
		fmt.Printf("\nPartner: %s\n", msg.Content)
	}

	return playPreview(ctx, r)
}

func playPreview(ctx context.Context, r *practice.Runner) error {
	scanner := bufio.NewScanner(os.Stdin)
	policy := r.Policy()
	for r.Snapshot().Phase() == practice.PhaseAwaitingInput {
		st := r.Snapshot()
		fmt.Printf("\n[turn %d/%d] You: ", st.CurrentTurn+1, policy.MaxTurns)
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			r.Abandon(ctx)
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Println("(say something first)")
			continue
		}

		out, err := r.Submit(ctx, text)
		if err != nil {
			if errors.Is(err, practice.ErrRejected) {
				return err
			}
			fmt.Printf("\033[31m✗ Scoring failed:\033[0m %v (try again)\n", err)
			continue
		}

		fmt.Printf("Partner: %s\n", out.Reply.Content)
		printTurnScores(out)

		if _, err := r.TypewriterDone(ctx); err != nil {
			return err
		}
	}

	sum := r.Summary()
	if sum == nil {
		return nil
	}
	fmt.Printf("\n── Summary: %d (%s, %s) over %d turns ──\n", sum.FinalScore, sum.Grade, sum.Label, sum.Turns)
	if sum.Passed {
		fmt.Println("\033[32m✓ Passed\033[0m")
	} else {
		fmt.Printf("\033[31m✗ Not passed\033[0m (need %d)\n", policy.PassScore)
	}
	return nil
}

func printScene(s practice.SceneInfo) {
	fmt.Printf("%s (%s)\n", s.Title, s.Difficulty.DisplayName())
	fmt.Println(s.Description)
	if s.Context != "" {
		fmt.Printf("Context: %s\n", s.Context)
	}
	fmt.Printf("Goal:    %s\n", s.Goal)
}

func printTurnScores(out *practice.TurnOutcome) {
	d := out.Reply.Scores
	if d == nil {
		d = &scoring.Dimensions{}
	}
	fmt.Printf("  turn %d  communication %d  accuracy %d  scenario %d  fluency %d  => %d\n",
		out.Turn, d.Communication, d.Accuracy, d.Scenario, d.Fluency, out.TurnScore)
	fmt.Printf("  running score %d (%s)\n", out.TotalScore, scoring.FormatDelta(out.Delta))
	if out.Reply.Feedback != "" {
		fmt.Printf("  feedback: %s\n", out.Reply.Feedback)
	}
}
