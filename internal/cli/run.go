package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/config"
	"countdown-quiz/internal/domain"
	"countdown-quiz/internal/logger"
	"github.com/spf13/cobra"
)

const terminalHelp = `commands:
  1-5          answer the current question
  n, next      next question
  b, prev      previous question
  g <number>   go to question
  guess        flip the guess flag of the current question
  pause        pause or resume the clock
  submit       finish now
  help         show this help`

// NewRunCmd takes a quiz in the terminal.
func NewRunCmd(configPath *string) *cobra.Command {
	var quizID, outDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			b, err := wireBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			if quizID == "" {
				quizID = cfg.Quiz.DefaultQuiz
			}
			service := newService(cfg, b, log)
			session, err := service.Start(ctx, quizID)
			if err != nil {
				return err
			}
			defer service.Close(context.Background(), session.ID())

			out := cmd.OutOrStdout()
			result, err := runTerminal(ctx, session, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, result.Report.FileName)
			if err := os.WriteFile(path, []byte(result.Report.Body), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "report written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id (defaults to quiz.defaultQuiz)")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for the report file")
	return cmd
}

// runTerminal renders session events and feeds typed commands back until
// the session is submitted, by the user, by end of input, or by the clock.
func runTerminal(ctx context.Context, session *app.Session, in io.Reader, out io.Writer) (domain.Result, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	events, cancel := session.Subscribe()
	defer cancel()

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

	fmt.Fprintln(out, terminalHelp)
	for {
		select {
		case <-ctx.Done():
			return session.Submit(), nil
		case evt, ok := <-events:
			if !ok {
				return domain.Result{}, errors.New("session closed")
			}
			switch evt.Type {
			case domain.EventSubmitted:
				if evt.Result.Auto {
					fmt.Fprintln(out, "time is up")
				}
				fmt.Fprint(out, evt.Result.Report.Body)
				return *evt.Result, nil
			case domain.EventTick:
			default:
				render(out, evt.Snapshot)
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				session.Submit()
				continue
			}
			if err := handleCommand(session, line, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func handleCommand(session *app.Session, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	current := session.Current()

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "n", "next":
		_, err := session.Next()
		return err
	case "b", "prev":
		_, err := session.Prev()
		return err
	case "g", "goto":
		if len(fields) != 2 {
			return errors.New("usage: g <number>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("question number %q: %w", fields[1], err)
		}
		_, err = session.LoadQuestion(n - 1)
		return err
	case "guess":
		guessed := session.Snapshot().Current.Guessed
		return session.SetGuessed(current, !guessed)
	case "pause":
		_, err := session.TogglePause()
		return err
	case "submit":
		session.Submit()
		return nil
	case "help", "h":
		fmt.Fprintln(out, terminalHelp)
		return nil
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			return fmt.Errorf("unknown command %q", cmd)
		}
		return session.SelectOption(current, domain.Option(n))
	}
}

func render(out io.Writer, s domain.Snapshot) {
	if s.Paused {
		fmt.Fprintf(out, "[paused] time left %s\n", s.Clock)
		return
	}
	q := s.Current
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		if o == q.Selected {
			opts[i] = fmt.Sprintf("[%d]", o)
		} else {
			opts[i] = strconv.Itoa(int(o))
		}
	}
	guess := ""
	if q.Guessed {
		guess = "  (guess)"
	}

	var palette strings.Builder
	for _, p := range s.Palette {
		mark := "."
		if p.Answered {
			mark = "*"
		}
		if p.Guessed {
			mark = "?"
		}
		fmt.Fprintf(&palette, "%d%s ", p.Number, mark)
	}

	fmt.Fprintf(out, "Question %d/%d  %s  time left %s\n", q.Number, s.Total, q.ImageRef, s.Clock)
	fmt.Fprintf(out, "Options: %s%s\n", strings.Join(opts, " "), guess)
	fmt.Fprintf(out, "%s\n", strings.TrimSpace(palette.String()))
}
