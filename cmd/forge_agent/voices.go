package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jordan/content-forge/internal/config"
)

var voicesCommand = &cobra.Command{
	Use:   "voices",
	Short: "List available voice profiles and their quality thresholds",
	RunE:  listVoicesCmd,
}

var voicesFilePath string

func init() {
	voicesCommand.Flags().StringVar(&voicesFilePath, "voices-file", "", "Path to a YAML voice profile bundle (optional, defaults to built-in voices)")
	rootCmd.AddCommand(voicesCommand)
}

func listVoicesCmd(_ *cobra.Command, _ []string) error {
	voices := config.DefaultVoices()
	if voicesFilePath != "" {
		loaded, err := config.LoadVoices(voicesFilePath)
		if err != nil {
			return err
		}
		voices = loaded
	}

	ids := make([]string, 0, len(voices))
	for id := range voices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		v := voices[id]
		t := v.Thresholds.WithDefaults()
		fmt.Printf("%s (%s)\n", v.Name, id)
		fmt.Printf("  slop ≤ %.1f  vendor-speak ≤ %.1f  authenticity ≥ %.1f  specificity ≥ %.1f  persona ≥ %.1f  narrative ≥ %.1f\n",
			t.SlopMax, t.VendorSpeakMax, t.AuthenticityMin, t.SpecificityMin, t.PersonaMin, t.NarrativeArcMin)
		if v.Guide != "" {
			fmt.Printf("  %s\n", truncateGuide(v.Guide))
		}
	}
	return nil
}

func truncateGuide(guide string) string {
	const max = 100
	if len(guide) <= max {
		return guide
	}
	return guide[:max-3] + "..."
}
