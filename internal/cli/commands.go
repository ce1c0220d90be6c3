package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/learnword/internal/app"
	"codeberg.org/snonux/learnword/internal/audio"
	"codeberg.org/snonux/learnword/internal/progress"
	"codeberg.org/snonux/learnword/internal/reminder"
	"codeberg.org/snonux/learnword/internal/transfer"
)

// runner opens the application once per subcommand run
type runner struct {
	flags *Flags
	open  Opener
}

func (r *runner) with(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := r.open(ctx, r.flags)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a, args)
	}
}

func (r *runner) studyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study today's words interactively",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			s, err := a.NewSession(ctx, r.flags.Count)
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No words to study in the selected course.")
				return nil
			}
			_, err = runStudy(ctx, a, s, cmd.InOrStdin(), cmd.OutOrStdout(), !r.flags.NoAudio)
			return err
		}),
	}
	cmd.Flags().IntVarP(&r.flags.Count, "count", "n", 0, "Number of words (default: daily goal)")
	cmd.Flags().BoolVar(&r.flags.NoAudio, "no-audio", false, "Do not pronounce words")
	return cmd
}

func (r *runner) answerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer <word>",
		Short: "Record one answer for a word studied elsewhere",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			p, err := a.Answer(ctx, args[0], !r.flags.Wrong)
			if err != nil {
				return err
			}
			printProgress(cmd, p)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&r.flags.Wrong, "wrong", false, "Record a wrong answer")
	return cmd
}

func printProgress(cmd *cobra.Command, p progress.StudyProgress) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Answers:  %d (%d correct, %d wrong)\n", p.TotalLearned, p.CorrectCount, p.WrongCount)
	fmt.Fprintf(out, "Streak:   %d day(s)\n", p.Streak)
	if p.LastStudyDate != "" {
		fmt.Fprintf(out, "Last day: %s\n", p.LastStudyDate)
	}
}

func (r *runner) progressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show overall and today's progress",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			p, err := a.Tracker.GetProgress(ctx)
			if err != nil {
				return err
			}
			today, err := a.Tracker.TodayProgress(ctx)
			if err != nil {
				return err
			}
			minutes, err := a.Tracker.StudyTime(ctx)
			if err != nil {
				return err
			}

			printProgress(cmd, p)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today:    %d/%d words (%.0f%%)", today.TodayCount, today.DailyGoal, today.Percent)
			if today.IsCompleted {
				fmt.Fprint(out, " done")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Studied:  %d min\n", minutes)
			return nil
		}),
	}
}

func (r *runner) todayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the words selected for today",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			count := r.flags.Count
			if count <= 0 {
				goal, err := a.Tracker.DailyGoal(ctx)
				if err != nil {
					return err
				}
				count = goal
			}
			words, err := a.Selector.SelectTodayWords(ctx, count)
			if err != nil {
				return err
			}
			for _, w := range words {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", w.Word, w.Meaning)
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&r.flags.Count, "count", "n", 0, "Number of words (default: daily goal)")
	return cmd
}

func printWords(cmd *cobra.Command, words []progress.WordRecord, count func(progress.WordRecord) int, label string) {
	out := cmd.OutOrStdout()
	if len(words) == 0 {
		fmt.Fprintln(out, "None.")
		return
	}
	for _, w := range words {
		fmt.Fprintf(out, "%-16s %-12s %s %d\n", w.Word, w.Meaning, label, count(w))
	}
}

func (r *runner) errorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "List words answered wrongly",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if r.flags.Clear {
				if err := a.Tracker.ClearErrorWords(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Error words cleared.")
				return nil
			}
			words, err := a.Tracker.ErrorWords(ctx)
			if err != nil {
				return err
			}
			printWords(cmd, words, func(w progress.WordRecord) int { return w.ErrorCount }, "errors:")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&r.flags.Clear, "clear", false, "Remove all error words")
	return cmd
}

func (r *runner) learnedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "learned",
		Short: "List learned words",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			words, err := a.Tracker.LearnedWords(ctx)
			if err != nil {
				return err
			}
			printWords(cmd, words, func(w progress.WordRecord) int { return w.ReviewCount }, "reviews:")
			return nil
		}),
	}
}

func (r *runner) coursesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List available courses",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			selected, err := a.Tracker.SelectedCourse(ctx)
			if err != nil {
				return err
			}
			for _, c := range a.Catalog.All() {
				marker := " "
				if c.Name == selected {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%d words)\n", marker, c.Emoji, c.Name, c.WordCount())
			}
			return nil
		}),
	}
}

func (r *runner) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			f := cmd.Flags()
			if f.Changed("goal") {
				if err := a.Tracker.SetDailyGoal(ctx, r.flags.DailyGoal); err != nil {
					return err
				}
			}
			if f.Changed("course") {
				if err := a.Tracker.SetSelectedCourse(ctx, r.flags.Course); err != nil {
					return err
				}
			}
			if f.Changed("dark-mode") {
				on, err := strconv.ParseBool(r.flags.DarkMode)
				if err != nil {
					return fmt.Errorf("invalid dark mode value %q: %w", r.flags.DarkMode, err)
				}
				if err := a.Tracker.SetDarkMode(ctx, on); err != nil {
					return err
				}
			}
			if f.Changed("add-minutes") {
				if _, err := a.Tracker.AddStudyTime(ctx, r.flags.AddMinutes); err != nil {
					return err
				}
			}

			settings, err := a.Tracker.Settings(ctx)
			if err != nil {
				return err
			}
			minutes, err := a.Tracker.StudyTime(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daily goal:  %d\n", settings.DailyGoal)
			fmt.Fprintf(out, "Course:      %s\n", settings.SelectedCourse)
			fmt.Fprintf(out, "Dark mode:   %t\n", settings.DarkMode)
			fmt.Fprintf(out, "Study time:  %d min\n", minutes)
			return nil
		}),
	}
	cmd.Flags().IntVar(&r.flags.DailyGoal, "goal", 0, "Words to learn per day")
	cmd.Flags().StringVar(&r.flags.Course, "course", "", "Select a course by name")
	cmd.Flags().StringVar(&r.flags.DarkMode, "dark-mode", "", "Dark mode preference (true or false)")
	cmd.Flags().IntVar(&r.flags.AddMinutes, "add-minutes", 0, "Add study time in minutes")
	return cmd
}

func (r *runner) playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <word>",
		Short: "Pronounce a word",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			word := strings.TrimSpace(args[0])
			if err := audio.ValidateWord(word); err != nil {
				return fmt.Errorf("invalid word '%s': %w", word, err)
			}
			ok, err := a.Chain.PlayWord(ctx, word, audio.DefaultOptions())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no audio engine could pronounce %q", word)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Played %q with %s\n", word, a.Chain.CurrentEngine())
			return nil
		}),
	}
}

func (r *runner) enginesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "Show the audio engines and their state",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if r.flags.ListModels {
				return listSpeechModels(ctx, cmd)
			}
			// Initialise so the current engine is known
			if err := a.Chain.Init(ctx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: %v\n", err)
			}
			for _, e := range a.Chain.Engines(ctx) {
				marker := " "
				if e.Current {
					marker = "*"
				}
				state := "unavailable"
				if e.Available {
					state = "available"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %-12s %-20s quality: %s, breaker: %s\n",
					marker, e.Name, state, e.Type, e.Quality, e.Breaker)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&r.flags.ListModels, "list-models", false, "List OpenAI speech models for the current API key")
	return cmd
}

func listSpeechModels(ctx context.Context, cmd *cobra.Command) error {
	key := GetOpenAIKey()
	if key == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .learnword.yaml")
	}
	e, err := audio.NewOpenAIEngine(&audio.OpenAIConfig{APIKey: key})
	if err != nil {
		return err
	}
	models, err := e.SpeechModels(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Text-to-Speech (TTS) Models:")
	if len(models) == 0 {
		fmt.Fprintln(out, "  No TTS models found")
	}
	for _, m := range models {
		fmt.Fprintf(out, "  %s\n", m)
	}
	return nil
}

func (r *runner) exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all study data to JSON",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			data, err := a.Export(ctx)
			if err != nil {
				return err
			}
			path := r.flags.Output
			if path == "" {
				path = transfer.DefaultFilename(a.Tracker.Now())
			}
			if err := transfer.WriteFile(path, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&r.flags.Output, "output", "o", "", "Output file (default: learnword-backup-<date>.json)")
	return cmd
}

func (r *runner) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import study data exported earlier",
		Args:  cobra.ExactArgs(1),
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			raw, err := transfer.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, backup, err := a.Import(ctx, raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if backup != "" {
				fmt.Fprintf(out, "Previous data backed up to %s\n", backup)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "Skipped %s\n", e)
			}
			if !result.Success {
				return fmt.Errorf("nothing imported from %s", args[0])
			}
			fmt.Fprintf(out, "Imported: %s\n", strings.Join(result.Imported, ", "))
			return nil
		}),
	}
}

func (r *runner) remindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind daily while today's goal is open",
		Args:  cobra.NoArgs,
		RunE: r.with(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			rem := reminder.New(a.Tracker, reminder.WriterNotifier{W: cmd.OutOrStdout()})
			if r.flags.Once {
				today, sent, err := rem.Check(ctx)
				if err != nil {
					return err
				}
				if !sent {
					fmt.Fprintf(cmd.OutOrStdout(), "Daily goal reached (%d/%d).\n", today.TodayCount, today.DailyGoal)
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			if err := rem.Start(ctx, setting("reminder.at", r.flags.ReminderAt)); err != nil {
				return err
			}
			defer rem.Stop()
			if next, ok := rem.NextRun(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Next reminder at %s (Ctrl-C to stop)\n", next.Format("2006-01-02 15:04"))
			}
			<-ctx.Done()
			return nil
		}),
	}
	cmd.Flags().StringVar(&r.flags.ReminderAt, "at", r.flags.ReminderAt, "Time of day to check, HH:MM")
	cmd.Flags().BoolVar(&r.flags.Once, "once", false, "Check once and exit")
	viper.BindPFlag("reminder.at", cmd.Flags().Lookup("at"))
	return cmd
}
