package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"geo-elevate/internal/app"
	"geo-elevate/internal/domain"
	"geo-elevate/internal/game"
	"github.com/spf13/cobra"
)

var optionLetters = []string{"A", "B", "C", "D"}

// NewPlayCmd plays one game in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game of capitals, flags or speed",
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

			if n := d.scores.MigrateLocalScores(cmd.Context()); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Synced %d local scores to your account.\n", n)
			}
			return playGame(cmd.Context(), d.gameService(), mode, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", string(domain.ModeCapitals), "capitals, flags or speed")
	return cmd
}

func playGame(ctx context.Context, service *app.GameService, mode domain.Mode, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runner, catalog, err := service.Start(ctx, mode)
	if err != nil {
		return err
	}
	logAdvisory(catalog)

	type played struct {
		result app.GameResult
		err    error
	}
	resultCh := make(chan played, 1)
	go func() {
		result, err := service.Play(ctx, runner, catalog)
		resultCh <- played{result, err}
	}()

	lines := readLines(ctx, in)
	input := lines
	gameID := runner.Session().ID()
	events := runner.Events()

	var (
		current    *domain.Question
		pending    string
		hasPending bool
		inputDone  bool
	)

	// submit answers the current question with line. A valid answer clears
	// current so the next line waits for the next question.
	submit := func(line string) {
		answer, valid := pickOption(*current, line)
		if !valid {
			fmt.Fprintln(out, "  Pick A-D or 1-4.")
			return
		}
		err := service.Answer(ctx, gameID, current.ID, answer)
		switch {
		case err == nil:
			current = nil
		case errors.Is(err, domain.ErrGameOver):
		default:
			fmt.Fprintf(out, "  %v\n", err)
		}
	}
	// A speed game only ends by answering, so it cannot outlive its input.
	stranded := func() bool {
		return inputDone && !hasPending && current != nil && mode.Timed()
	}

	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev.Type {
			case game.EventQuestion:
				current = ev.Question
				printQuestion(out, mode, *ev.Question, ev.Remaining)
				if err := service.Shown(ctx, gameID, current.ID); err != nil && !errors.Is(err, domain.ErrGameOver) {
					fmt.Fprintf(out, "  %v\n", err)
				}
				if hasPending {
					hasPending = false
					submit(pending)
				}
				if !inputDone {
					input = lines
				}
				if stranded() {
					fmt.Fprintln(out, "Input closed.")
					cancel()
				}
			case game.EventAnswer:
				current = nil
				printOutcome(out, *ev.Outcome)
			case game.EventTick:
				if ev.Remaining > 0 && ev.Remaining%10 == 0 {
					fmt.Fprintf(out, "  %ds left\n", ev.Remaining)
				}
			case game.EventOver:
				fmt.Fprintln(out, "Game over!")
			}

		case line, ok := <-input:
			if !ok {
				// the countdown, or the answers already given, end the game
				inputDone = true
				input = nil
				if stranded() {
					fmt.Fprintln(out, "Input closed.")
					cancel()
				}
				continue
			}
			if current == nil {
				// hold the line for the next question and stop reading until then
				pending, hasPending = line, true
				input = nil
				continue
			}
			submit(line)
		}
	}

	res := <-resultCh
	if res.err != nil {
		return res.err
	}
	printSummary(out, res.result)
	return nil
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func pickOption(q domain.Question, input string) (string, bool) {
	input = strings.TrimSpace(input)
	for i, letter := range optionLetters {
		if i < len(q.Options) && strings.EqualFold(input, letter) {
			return q.Options[i], true
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1], true
	}
	for _, opt := range q.Options {
		if strings.EqualFold(input, opt) {
			return opt, true
		}
	}
	return "", false
}

func printQuestion(out io.Writer, mode domain.Mode, q domain.Question, remaining int) {
	fmt.Fprintln(out)
	if mode.Timed() {
		fmt.Fprintf(out, "Question %d\n", q.ID)
	} else {
		fmt.Fprintf(out, "Question %d (%ds left)\n", q.ID, remaining)
	}
	if mode == domain.ModeFlags {
		fmt.Fprintf(out, "%s\n  flag: %s (%s)\n", mode.Prompt(), q.Subject.FlagURL(), q.Subject.Region)
	} else {
		fmt.Fprintf(out, "%s  %s\n", mode.Prompt(), q.Subject.Name)
	}
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %s) %s\n", optionLetters[i], opt)
	}
}

func printOutcome(out io.Writer, o game.AnswerOutcome) {
	if o.Result.IsCorrect {
		fmt.Fprintf(out, "  Correct! +%d (total %d)\n", o.Points, o.TotalScore)
		return
	}
	fmt.Fprintf(out, "  Wrong, it was %s. (total %d)\n", o.Result.CorrectAnswer, o.TotalScore)
}

func printSummary(out io.Writer, result app.GameResult) {
	s := result.Summary
	correct := 0
	for _, r := range s.Results {
		if r.IsCorrect {
			correct++
		}
	}
	fmt.Fprintf(out, "\n%s: %d points, %d/%d correct", s.Mode, s.Score, correct, s.TotalQuestions)
	if s.TotalQuestions > 0 {
		fmt.Fprintf(out, " (%d%% accuracy)", correct*100/s.TotalQuestions)
	}
	fmt.Fprintln(out)
	if result.NewHighScore {
		fmt.Fprintln(out, "New high score!")
	}
	printReview(out, s.Results)
}

// printReview lists every answered question of the game.
func printReview(out io.Writer, results []domain.QuestionResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(out, "\nReview:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tcountry\tyour answer\tcorrect answer\ttime\tpoints")
	for i, r := range results {
		mark := "x"
		if r.IsCorrect {
			mark = "ok"
		}
		elapsed := "-"
		if r.TimeToAnswerMs != nil {
			elapsed = fmt.Sprintf("%.1fs", float64(*r.TimeToAnswerMs)/1000)
		}
		fmt.Fprintf(w, "%d\t%s\t%s (%s)\t%s\t%s\t%d\n", i+1, r.Country.Name, r.UserAnswer, mark, r.CorrectAnswer, elapsed, r.Points)
	}
	_ = w.Flush()
}
