package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crawlpulse/datafilters/pkg/editor"
	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/presets"
	"github.com/crawlpulse/datafilters/pkg/preview"
)

var (
	// ErrDefinitionRequired is returned when evaluate gets neither a definition nor a preset
	ErrDefinitionRequired = errors.New("--definition or --preset is required")
	// ErrWatchNeedsDefinition is returned when --watch is combined with a preset
	ErrWatchNeedsDefinition = errors.New("--watch needs --definition")
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	evalDataset    string
	evalDefinition string
	evalPreset     string
	evalDatasets   string
	evalMaxRows    int
	evalWatch      bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a filter definition against a dataset",
	Long: `Evaluate a condition set and transformation pipeline, read from a YAML or
JSON definition file or taken from a preset, and print the resulting rows as a
table followed by counts, validation errors and warnings.

With --watch the definition file is re-evaluated after every save, debounced
like the live preview.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evalDataset, "dataset", "d", "posts", "dataset type to evaluate")
	evaluateCmd.Flags().StringVarP(&evalDefinition, "definition", "f", "", "definition file with conditions and transformations")
	evaluateCmd.Flags().StringVarP(&evalPreset, "preset", "p", "", "preset id to evaluate instead of a definition file")
	evaluateCmd.Flags().StringVar(&evalDatasets, "datasets", "", "serve catalogs and records from this file instead of the backend")
	evaluateCmd.Flags().IntVarP(&evalMaxRows, "max-rows", "n", 20, "maximum rows to print, 0 for all")
	evaluateCmd.Flags().BoolVarP(&evalWatch, "watch", "w", false, "re-evaluate when the definition file changes")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if evalDefinition == "" && evalPreset == "" {
		return ErrDefinitionRequired
	}

	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return err
	}
	if evalDatasets != "" {
		cfg.DatasetFile = evalDatasets
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, closeSource, err := cfg.source()
	if err != nil {
		return err
	}
	defer closeSource()

	eval := evaluator.New(logger, src, src)

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if evalWatch {
		if evalDefinition == "" {
			return ErrWatchNeedsDefinition
		}
		return watchDefinition(ctx, cmd.OutOrStdout(), eval, cfg, req)
	}

	res, err := eval.Run(ctx, req)
	if err != nil {
		return err
	}

	printResult(cmd.OutOrStdout(), res)

	return nil
}

func buildRequest(cfg *CLIConfig) (evaluator.Request, error) {
	req := evaluator.Request{DatasetType: evalDataset, MaxRows: evalMaxRows}

	var state editor.State
	if evalPreset != "" {
		store, err := presets.Load(&cfg.Presets)
		if err != nil {
			return req, err
		}
		if state, err = store.Apply(state, evalPreset); err != nil {
			return req, err
		}
	} else {
		snap, err := loadDefinition(evalDefinition)
		if err != nil {
			return req, err
		}
		state = editor.FromSnapshot(snap)
	}

	req.Conditions = state.Conditions()
	req.Transformations = state.Pipeline()

	return req, nil
}

// watchDefinition re-runs the definition through the debounced scheduler on
// every change until ctx is done
func watchDefinition(ctx context.Context, out io.Writer, eval *evaluator.Evaluator, cfg *CLIConfig, req evaluator.Request) error {
	log := logger.WithField("component", "watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(evalDefinition)
	if err != nil {
		return err
	}

	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	previewCfg := cfg.Preview
	if evalMaxRows > 0 {
		previewCfg.MaxRows = evalMaxRows
	}

	scheduler := preview.NewScheduler(log, preview.NewLocalService(eval, &previewCfg), &previewCfg, func(u preview.Update) {
		if u.Err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n\n", u.Err)
			return
		}
		_, _ = fmt.Fprintf(out, "--- evaluation #%d\n", u.Token)
		printResult(out, u.Result)
		_, _ = fmt.Fprintln(out)
	})
	defer scheduler.Close()

	if _, err := scheduler.Schedule(req); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			snap, err := loadDefinition(target)
			if err != nil {
				log.WithError(err).Warn("Ignoring unreadable definition")
				continue
			}

			req.Conditions = snap.Conditions
			req.Transformations = snap.Transformations
			if _, err := scheduler.Schedule(req); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")
		}
	}
}

func printResult(out io.Writer, res *evaluator.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	names := res.Fields.Names()
	for i, name := range names {
		sep := "\t"
		if i == len(names)-1 {
			sep = "\n"
		}
		_, _ = fmt.Fprint(w, name, sep)
	}

	for _, row := range res.Rows {
		for i, name := range names {
			sep := "\t"
			if i == len(names)-1 {
				sep = "\n"
			}
			_, _ = fmt.Fprint(w, cell(row, name), sep)
		}
	}
	_ = w.Flush()

	shown := fmt.Sprintf("%d", len(res.Rows))
	if res.Truncated {
		shown += " (truncated)"
	}
	_, _ = fmt.Fprintf(out, "\nrows: %s of %d, matched: %d\n", shown, res.TotalCount, res.MatchedCount)

	for _, g := range res.Groups {
		_, _ = fmt.Fprintf(out, "group %s=%v: %d\n", res.GroupField, g.Key, g.Count)
	}

	for _, e := range res.ValidationErrors {
		_, _ = fmt.Fprintf(out, "invalid: %s\n", e.Error())
	}

	for _, a := range res.Advisories {
		_, _ = fmt.Fprintf(out, "advice: %s %d: %s\n", a.Source, a.Index, a.Message)
	}

	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %s %d (%s): %s [%d rows]\n", warn.Source, warn.Index, warn.Field, warn.Message, warn.Rows)
	}

	if len(res.Warnings) > 0 {
		logger.WithFields(logrus.Fields{"warnings": len(res.Warnings)}).Debug("Evaluation finished with warnings")
	}
}

func cell(row filter.Record, name string) string {
	v, ok := row.Lookup(name)
	if !ok || v == nil {
		return "-"
	}
	return filter.ToText(v)
}
