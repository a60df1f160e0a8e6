package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crawlpulse/datafilters/pkg/presets"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Inspect filter presets",
}

//nolint:gochecknoglobals // Cobra commands are typically global
var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		store, err := loadPresets()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tCONDITIONS\tSTAGES\tDESCRIPTION")
		for _, p := range store.List() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				p.ID, p.Name, len(p.Conditions), len(p.Transformations), p.Description)
		}
		return w.Flush()
	},
}

//nolint:gochecknoglobals // Cobra commands are typically global
var presetsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a preset definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		store, err := loadPresets()
		if err != nil {
			return err
		}

		p, err := store.Get(args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	presetsCmd.AddCommand(presetsListCmd, presetsShowCmd)
	rootCmd.AddCommand(presetsCmd)
}

func loadPresets() (*presets.Store, error) {
	cfg, err := LoadCLIConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	return presets.Load(&cfg.Presets)
}
