package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jobagent/internal/agent"
	"jobagent/internal/jobsearch"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatVerbose bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the assistant; without a message, read turns from stdin",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := boot(ctx, "cli")
		if err != nil {
			return err
		}
		defer a.Close()

		session := chatSession
		if session == "" {
			session = uuid.NewString()
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", session)

		if len(args) > 0 {
			return turn(ctx, a.assistant, session, strings.Join(args, " "), out)
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			msg := strings.TrimSpace(scanner.Text())
			if msg == "" {
				continue
			}
			if err := turn(ctx, a.assistant, session, msg, out); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume a session (default: new random id)")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "print tool calls and sub-agent activity")
}

func turn(ctx context.Context, a *jobsearch.Assistant, session, message string, out io.Writer) error {
	err := a.Run(ctx, session, message, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToken:
			fmt.Fprint(out, ev.Data)
		case agent.EventToolCall:
			if chatVerbose {
				d, _ := ev.Data.(map[string]string)
				fmt.Fprintf(os.Stderr, "\n[%s] %s %s\n", d["agent"], d["name"], d["arguments"])
			}
		case agent.EventDone:
			fmt.Fprintln(out)
		}
	})
	if err != nil {
		return err
	}

	if files, _ := a.Workspace().List(session); len(files) > 0 {
		fmt.Fprintf(os.Stderr, "workspace %s: %s\n", a.Workspace().Root(), strings.Join(files, ", "))
	}
	return nil
}
