package main

import (
	"errors"

	"frienddump/pkg/ui"

	"github.com/spf13/cobra"
)

var uidCmd = &cobra.Command{
	Use:   "uid <profile-url>...",
	Short: "Resolve profile URLs to numeric ids",
	Long: `Resolve profile URLs through the configured UID service. URLs that do
not start with api.profile_url_prefix are rejected without a request.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUID,
}

func init() {
	rootCmd.AddCommand(uidCmd)
}

func runUID(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range svc.auth.ResolveUIDs(cmd.Context(), args) {
		if r.Err != nil {
			ui.PrintError(r.URL, r.Err)
			failed++
			continue
		}
		ui.PrintInfo(r.URL, r.UID)
	}
	if failed == len(args) {
		return errors.New("no URL could be resolved")
	}
	return nil
}
