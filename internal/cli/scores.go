package cli

import (
	"fmt"
	"text/tabwriter"

	"geo-elevate/internal/domain"
	"github.com/spf13/cobra"
)

func scoreCommands(configPath *string) []*cobra.Command {
	return []*cobra.Command{
		newScoresCmd(configPath),
		newLeaderboardCmd(configPath),
		newMyScoresCmd(configPath),
		{
			Use:   "stats <username>",
			Short: "Show public stats for a player",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := loadDeps(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				stats, err := d.scores.UserStats(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "player\t%s\n", stats.Username)
				fmt.Fprintf(w, "games\t%d\n", stats.TotalGames)
				fmt.Fprintf(w, "best capitals\t%d\n", stats.BestCapitals)
				fmt.Fprintf(w, "best flags\t%d\n", stats.BestFlags)
				fmt.Fprintf(w, "best speed\t%d\n", stats.BestSpeed)
				fmt.Fprintf(w, "total score\t%d\n", stats.TotalScore)
				return w.Flush()
			},
		},
		{
			Use:   "sync-scores",
			Short: "Upload local scores to your account (once)",
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := loadDeps(cmd.Context(), *configPath)
				if err != nil {
					return err
				}
				defer d.Close()
				if !d.auth.Authenticated() {
					return domain.ErrNotAuthenticated
				}
				n := d.scores.MigrateLocalScores(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d scores.\n", n)
				return nil
			},
		},
	}
}

func newScoresCmd(configPath *string) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the local top-10 scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			var entries []domain.ScoreEntry
			if modeName == "" {
				entries, err = d.scores.Scores(cmd.Context())
			} else {
				mode, perr := domain.ParseMode(modeName)
				if perr != nil {
					return perr
				}
				entries, err = d.scores.ScoresFor(cmd.Context(), mode)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tmode\tscore\tdate")
			for i, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, e.Mode, e.Score, e.Date)
			}
			fmt.Fprintln(w)
			for _, mode := range domain.Modes {
				best, err := d.scores.HighScore(cmd.Context(), mode)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "best %s\t%d\n", mode, best)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", "", "only show one mode")
	return cmd
}

func newLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		modeName string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the global leaderboard for a mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseMode(modeName)
			if err != nil {
				return err
			}
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			entries, err := d.scores.Leaderboard(cmd.Context(), mode, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "rank\tplayer\tscore\tquestions\tdate")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", e.Rank, e.Username, e.Score, e.QuestionsAnswered, e.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", string(domain.ModeCapitals), "capitals, flags or speed")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries")
	return cmd
}

func newMyScoresCmd(configPath *string) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "my-scores",
		Short: "Show your scores stored on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode domain.Mode
			if modeName != "" {
				parsed, err := domain.ParseMode(modeName)
				if err != nil {
					return err
				}
				mode = parsed
			}
			d, err := loadDeps(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			scores, err := d.scores.MyScores(cmd.Context(), mode)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "mode\tscore\tquestions\tdate")
			for _, s := range scores {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.GameMode, s.Score, s.QuestionsAnswered, s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", "", "only show one mode")
	return cmd
}
