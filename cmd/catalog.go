package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crawlpulse/datafilters/pkg/filter"
	"github.com/crawlpulse/datafilters/pkg/pipeline"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var catalogDatasets string

//nolint:gochecknoglobals // Cobra commands are typically global
var fieldsCmd = &cobra.Command{
	Use:   "fields <dataset>",
	Short: "List the filterable fields of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runFields,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var operatorsCmd = &cobra.Command{
	Use:   "operators [type]",
	Short: "List the operators allowed per field type",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOperators,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var transformationsCmd = &cobra.Command{
	Use:   "transformations",
	Short: "List the pipeline stages, aggregates, formatters and expressions",
	Args:  cobra.NoArgs,
	RunE:  runTransformations,
}

func init() {
	fieldsCmd.Flags().StringVar(&catalogDatasets, "datasets", "", "read catalogs from this file instead of the backend")
	rootCmd.AddCommand(fieldsCmd, operatorsCmd, transformationsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return err
	}
	if catalogDatasets != "" {
		cfg.DatasetFile = catalogDatasets
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, closeSource, err := cfg.source()
	if err != nil {
		return err
	}
	defer closeSource()

	fields, err := src.GetFields(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	reg := filter.DefaultRegistry()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tLABEL\tTYPE\tOPERATORS")
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Label, f.Type, joinOperators(reg.Operators(f.Type)))
	}
	return w.Flush()
}

func runOperators(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg := filter.DefaultRegistry()

	types := filter.FieldTypes()
	if len(args) == 1 {
		t := filter.FieldType(args[0])
		if !t.IsValid() {
			return fmt.Errorf("unknown field type %q", args[0])
		}
		types = []filter.FieldType{t}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tDEFAULT\tOPERATORS")
	for _, t := range types {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t, reg.Default(t), joinOperators(reg.Operators(t)))
	}
	return w.Flush()
}

func runTransformations(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	reg := pipeline.NewRegistry()
	out := cmd.OutOrStdout()

	kinds := make([]string, 0, len(pipeline.Kinds()))
	for _, k := range pipeline.Kinds() {
		kinds = append(kinds, string(k))
	}
	aggs := make([]string, 0, len(pipeline.AggregateOps()))
	for _, a := range pipeline.AggregateOps() {
		aggs = append(aggs, string(a))
	}

	_, _ = fmt.Fprintf(out, "stages:     %s\n", strings.Join(kinds, ", "))
	_, _ = fmt.Fprintf(out, "aggregates: %s\n\n", strings.Join(aggs, ", "))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EXPRESSION\tINPUTS\tOUTPUT\tDESCRIPTION")
	for _, e := range reg.Expressions().List() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, strings.Join(e.Inputs, ","), e.Output, e.Description)
	}
	_, _ = fmt.Fprintln(w, "\t\t\t")
	_, _ = fmt.Fprintln(w, "FORMATTER\tARG\t\tDESCRIPTION")
	for _, f := range reg.Formatters().List() {
		arg := f.Arg
		if arg == "" {
			arg = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t\t%s\n", f.Name, arg, f.Description)
	}
	return w.Flush()
}

func joinOperators(ops []filter.Operator) string {
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, string(op))
	}
	return strings.Join(names, ",")
}
