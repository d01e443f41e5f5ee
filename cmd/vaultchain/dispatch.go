package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/vaultchain/internal/dispatch"
)

func newDispatchCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "dispatch <task> [json]",
		Short: "Dispatch one task and print the result",
		Long: "Dispatch one task through the configured executor, falling back to\n" +
			"the local simulator when the executor is unreachable. The payload\n" +
			"defaults to {}.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := json.RawMessage(`{}`)
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return errors.New("payload is not valid JSON")
				}
				payload = json.RawMessage(args[1])
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var opts []dispatch.Option
			if timeout > 0 {
				opts = append(opts, dispatch.WithTimeout(timeout))
			}
			res := a.dispatcher.Dispatch(cmd.Context(), args[0], payload, opts...)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if !res.OK {
				return fmt.Errorf("task %s failed: %s", args[0], res.Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "remote call timeout (default from config)")
	return cmd
}
