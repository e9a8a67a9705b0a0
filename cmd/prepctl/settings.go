package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"

	"github.com/stemsi/exprep-backend/internal/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings [key=value ...]",
	Short: "Show or change settings, e.g. settings authorMode=true passThreshold=75",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		current := prep.settings.Get(ctx, prep.learner.ID)
		if len(args) > 0 {
			req, err := parseSettings(args)
			if err != nil {
				return err
			}
			if current, err = prep.settings.Update(ctx, prep.learner.ID, req); err != nil {
				return err
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(current)
	},
}

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete history, flashcards and the study set",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !wipeYes {
			fmt.Fprint(out, "This deletes all progress for this profile. Type 'yes' to continue: ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}
		if err := prep.progress.Wipe(cmd.Context(), prep.learner.ID); err != nil {
			return err
		}
		fmt.Fprintln(out, "🧹 Profile wiped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd, wipeCmd)
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Skip confirmation")
}

// parseSettings turns key=value pairs into a partial update. Values are JSON
// literals, so booleans and numbers are written bare.
func parseSettings(args []string) (model.UpdateSettingsRequest, error) {
	fields := make(map[string]json.RawMessage, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return model.UpdateSettingsRequest{}, fmt.Errorf("%q is not key=value", arg)
		}
		fields[key] = json.RawMessage(value)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return model.UpdateSettingsRequest{}, fmt.Errorf("invalid value: %w", err)
	}
	var req model.UpdateSettingsRequest
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.UpdateSettingsRequest{}, fmt.Errorf("invalid setting: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return model.UpdateSettingsRequest{}, fmt.Errorf("invalid setting: %w", err)
	}
	return req, nil
}
