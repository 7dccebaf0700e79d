package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "doc0",
		Short:         "doc0: chat with framework documentation",
		Long:          "doc0 answers questions about React, Next.js, Astro, Kestra and Redux using a hosted documentation search API. Anonymous use is limited per day; signing in removes the limit.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	load := func() (*app, error) {
		return wireApp(configPath)
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newChatCmd(load),
		newQuotaCmd(load),
	)

	return rootCmd
}
