package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQuotaCmd(load func() (*app, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the anonymous daily request allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			window := a.widgetService.Quota(cmd.Context())
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(window)
			}

			fmt.Fprintf(out, "Limit:      %d\n", window.Limit)
			fmt.Fprintf(out, "Used:       %d\n", window.Used)
			fmt.Fprintf(out, "Remaining:  %d\n", window.Remaining)
			fmt.Fprintf(out, "Resets at:  %s\n", window.NextAllowedTime.Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
