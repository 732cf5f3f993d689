package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolhub/dispatch"
)

func newCallCmd(flags *rootFlags) *cobra.Command {
	var (
		sessionID string
		prompt    string
	)

	cmd := &cobra.Command{
		Use:   "call NAME [ARGUMENTS]",
		Short: "Dispatch one capability call locally and print the response",
		Example: `  toolhub call get_weather_cached '{"location":"Hangzhou","lang":"en_US"}'
  toolhub call get_time`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			call := dispatch.Call{Name: args[0]}
			if len(args) == 2 {
				call.Arguments = args[1]
			}
			if prompt == "" {
				prompt = cfg.Server.SystemPrompt
			}
			session := dispatch.NewSession(sessionID, prompt)

			resp, err := a.dispatcher.Dispatch(ctx, session, call)
			if err != nil {
				return err
			}
			if resp == nil {
				return fmt.Errorf("%s produced no result; see the log for details", call.Name)
			}

			if resp.Action == dispatch.ActionNotFound {
				return fmt.Errorf("unknown capability %q", call.Name)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "session ID")
	cmd.Flags().StringVar(&prompt, "prompt", "", "initial session prompt (default server.system_prompt)")
	return cmd
}
