package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanyumate/hanyumate/internal/app"
	"github.com/hanyumate/hanyumate/internal/chat"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

func newDrillCmd(root *rootOptions) *cobra.Command {
	var (
		level string
		user  string
		noAI  bool
	)

	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Start an interactive drill in the terminal (type /help, /quit to leave)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if noAI {
				cfg.Quiz.UseAI = false
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if level != "" && !a.Bank.HasLevel(vocab.ParseLevel(level)) {
				return fmt.Errorf("unknown level %q (available: %v)", level, a.Bank.Levels())
			}

			term := chat.NewTerminalChannel(cmd.InOrStdin(), cmd.OutOrStdout(), user)
			gw := chat.NewGateway()
			gw.Register(chat.ChannelTerminal, term)
			handle := a.MessageHandler(gw)

			handle(ctx, chat.InboundMessage{Channel: chat.ChannelTerminal, UserID: user, Name: user, Text: "/start"})
			if level != "" {
				handle(ctx, chat.InboundMessage{Channel: chat.ChannelTerminal, UserID: user, Text: "/level " + level})
			}

			if err := gw.StartAll(ctx, handle); err != nil {
				return err
			}
			select {
			case <-term.Done():
			case <-ctx.Done():
			}
			return gw.StopAll()
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "level to start on, e.g. HSK2")
	cmd.Flags().StringVar(&user, "user", "local", "learner name")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "never ask an AI provider for questions")
	return cmd
}
