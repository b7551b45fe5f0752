package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/practice"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice scene",
	Long:  "Start a practice scene. Without --level the home menu is shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		levelVal, _ := cmd.Flags().GetString("level")
		var level practice.Difficulty
		if levelVal != "" {
			d, err := practice.ParseDifficulty(levelVal)
			if err != nil {
				return err
			}
			level = d
		}
		return runApp(cmd, level)
	},
}

func init() {
	practiceCmd.Flags().StringP("level", "l", "", "Difficulty: beginner, intermediate or advanced")
}
