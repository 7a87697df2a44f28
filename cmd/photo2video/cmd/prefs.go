package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/photo2video/internal/config"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change the stored preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored preferences",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := config.OpenPreferenceStore(cfg.Preferences.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", store.Path())
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(store.Snapshot())
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the stored preferences",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := config.OpenPreferenceStore(cfg.Preferences.Path)
		if err != nil {
			return err
		}
		prefs, err := applyPreferenceFlags(cmd.Flags(), store.Snapshot())
		if err != nil {
			return err
		}
		if err := store.Save(prefs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[+++] Preferences saved: %s\n", store.Path())
		return nil
	},
}

func init() {
	addPreferenceFlags(prefsSetCmd.Flags())

	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
