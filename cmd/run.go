package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deep-research/internal/model"
	"github.com/sells-group/deep-research/internal/report"
)

var (
	runFramework string
	runTopic     string
	runNoCritic  bool
	runJSONOut   string
	runMDOut     string
	runRender    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research a topic with a framework and print the report",
	Example: `  research-cli run --framework big-idea --topic "AI music"
  research-cli run --framework specific-idea --topic "Agents for IT backlog" --md-out report.md --render`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := normalizeTopic(runTopic)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(cfg, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := runOptions{EnableCritic: cfg.Research.EnableCritic && !runNoCritic}
		updates := env.start(ctx, runFramework, topic, opts)

		rep := consumeUpdates(updates, cmd.ErrOrStderr())
		if rep == nil {
			return eris.Errorf("run: %s/%q produced no report", runFramework, topic)
		}

		if err := writeOutputs(rep, runJSONOut, runMDOut); err != nil {
			return err
		}

		if runRender {
			out, err := renderMarkdown(report.Markdown(rep))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		data, err := report.JSON(rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// normalizeTopic trims topic and rejects a blank one.
func normalizeTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", eris.New("run: --topic must not be blank")
	}
	return topic, nil
}

// consumeUpdates prints each status line to w as it arrives and returns the
// final report, or nil if the run ended without one.
func consumeUpdates(updates <-chan model.Update, w io.Writer) *model.FinalReport {
	var rep *model.FinalReport
	for u := range updates {
		if u.Section != "" && u.Kind == model.UpdateProgress {
			fmt.Fprintf(w, "[%s] %s\n", u.Section, u.Text)
		} else {
			fmt.Fprintln(w, u.Text)
		}
		if u.Report != nil {
			rep = u.Report
		}
	}
	return rep
}

// writeOutputs exports the report to the requested files. Empty paths are
// skipped.
func writeOutputs(rep *model.FinalReport, jsonPath, mdPath string) error {
	if jsonPath != "" {
		data, err := report.JSON(rep)
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return eris.Wrapf(err, "run: write %s", jsonPath)
		}
		zap.L().Info("wrote json report", zap.String("path", jsonPath))
	}
	if mdPath != "" {
		if err := os.WriteFile(mdPath, []byte(report.Markdown(rep)), 0o644); err != nil {
			return eris.Wrapf(err, "run: write %s", mdPath)
		}
		zap.L().Info("wrote markdown report", zap.String("path", mdPath))
	}
	return nil
}

// renderMarkdown formats md for the terminal.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", eris.Wrap(err, "run: create markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return "", eris.Wrap(err, "run: render markdown")
	}
	return out, nil
}

func init() {
	runCmd.Flags().StringVar(&runFramework, "framework", "", "research framework (big-idea or specific-idea)")
	runCmd.Flags().StringVar(&runTopic, "topic", "", "topic or idea to research")
	runCmd.Flags().BoolVar(&runNoCritic, "no-critic", false, "skip the critique stage and its gap-filling round")
	runCmd.Flags().StringVar(&runJSONOut, "json-out", "", "also write the report JSON to this file")
	runCmd.Flags().StringVar(&runMDOut, "md-out", "", "also write the report as Markdown to this file")
	runCmd.Flags().BoolVar(&runRender, "render", false, "print the rendered Markdown report instead of JSON")
	_ = runCmd.MarkFlagRequired("framework")
	_ = runCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(runCmd)
}
