package main

import (
	"errors"
	"fmt"

	"frienddump/pkg/models"
	"frienddump/pkg/ui"
	"frienddump/pkg/validator"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the stored session can read friends lists",
	Long: `Fetch the friends of the probe ids listed in the first existing file
of validator.probe_files (default .uid.txt) until one succeeds. The friend
ids of the successful probe are saved as the login check.

Without a probe file the check is skipped.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	creds, err := svc.auth.Current()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	res := validator.New(svc.client, svc.store, cfg, nil).Validate(cmd.Context(), creds)
	for _, p := range res.Probes {
		ui.PrintInfo(models.Mask(p.ID), string(p.State))
	}
	return reportValidation(res)
}

// reportValidation prints the outcome and returns an error when the session is unusable
func reportValidation(res validator.Result) error {
	switch res.Outcome {
	case validator.OutcomeValid:
		ui.PrintSuccess(fmt.Sprintf("Session valid, %d friend ids saved", len(res.FriendIDs)))
	case validator.OutcomeSkipped:
		ui.PrintWarning("No probe file found, skipping validation")
	case validator.OutcomeLoggedOut:
		return errors.New("not logged in")
	case validator.OutcomeBlocked:
		return errors.New("session is rate limited or blocked; wait before retrying")
	default:
		return errors.New("no probe returned friends; the session may be expired")
	}
	return nil
}
