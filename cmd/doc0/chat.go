package main

import (
	"os"
	"os/signal"

	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/liliang-cn/doc0/internal/terminal"
	"github.com/spf13/cobra"
)

func newChatCmd(load func() (*app, error)) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the documentation in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			if topic != "" {
				if _, err := a.widgetService.SwitchTopic(topic); err != nil {
					return err
				}
			}

			display, err := terminal.NewDisplay(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			repl := terminal.NewREPL(
				a.chatService,
				a.widgetService,
				a.authService,
				display,
				terminal.NewLoading(cmd.OutOrStdout()),
				cmd.InOrStdin(),
			)
			a.chatService.SetLoginPrompter(repl)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return repl.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to start on ("+topicList()+")")
	return cmd
}

func topicList() string {
	var s string
	for i, t := range domain.Topics() {
		if i > 0 {
			s += ", "
		}
		s += string(t)
	}
	return s
}
