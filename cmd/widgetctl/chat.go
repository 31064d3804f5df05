package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axiumai/chat-widget/internal/services/chat"
	"github.com/axiumai/chat-widget/internal/services/wsclient"
)

var showRaw bool

// chatDialer is swapped in tests.
var chatDialer wsclient.Dialer

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Open a conversation and read messages from standard input.

Commands:
  /reset    start over with a fresh session and an empty log
  /status   print the connection state
  /quit     leave`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctrl, err := newController(chatDialer)
		if err != nil {
			return err
		}
		defer ctrl.Close()

		p := newPrinter(cmd.OutOrStdout(), showRaw)
		unsubscribe := ctrl.Subscribe(p)
		defer unsubscribe()

		if err := ctrl.InitiateChat(ctx); err != nil {
			return fmt.Errorf("failed to start chat: %w", err)
		}
		return runREPL(ctx, ctrl, cmd.InOrStdin(), p)
	},
}

func init() {
	chatCmd.Flags().BoolVar(&showRaw, "raw", false, "Print raw backend payloads under each reply")
}

// runREPL feeds input lines to ctrl until EOF, /quit or ctx ends.
func runREPL(ctx context.Context, ctrl *chat.Controller, in io.Reader, p *printer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/status":
			p.status(ctrl.Snapshot())
			continue
		case "/reset":
			ctrl.Reset()
			if err := ctrl.InitiateChat(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to start new session")
			}
			continue
		}

		if err := ctrl.SendMessage(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, chat.ErrConversationReset) {
				logger.Debug().Err(err).Msg("send failed")
			}
		}
	}
}
