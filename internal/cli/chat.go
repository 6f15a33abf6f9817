package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/render"
	"github.com/hyperjump/cyborgbench/internal/transport"
)

func newChatCmd() *cobra.Command {
	var serverURL string
	var policy policyFlags
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Chat with a running server and show the latency dashboard",
		Long: `Send messages to a cyborgbench server. With arguments, the message is sent
once and the dashboard printed; without, an interactive session starts
(type "exit" or press Ctrl-D to leave).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			p, err := policy.apply(cfg.Evaluator)
			if err != nil {
				return err
			}
			eval, err := evaluator.New(p)
			if err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = cfg.Client.ServerURL
			}
			client, err := transport.New(serverURL, time.Duration(cfg.Client.TimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}
			s := &chatSession{
				client:    client,
				dashboard: evaluator.NewDashboard(eval),
				out:       render.NewTerminal(cmd.OutOrStdout()),
				logger:    logger,
			}
			if len(args) > 0 {
				s.echo = true
				return s.Turn(cmd.Context(), strings.Join(args, " "))
			}
			return s.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "server URL (default client.server_url)")
	policy.bind(cmd)
	return cmd
}

// sender is the transport used by a chat session.
type sender interface {
	Send(ctx context.Context, msg string) (*models.ChatResponse, error)
}

// chatSession runs chat cycles: submit, render reply, update the dashboard.
type chatSession struct {
	client    sender
	dashboard *evaluator.Dashboard
	out       render.Renderer
	logger    *zap.Logger
	// echo renders the user's message; off in the interactive session where
	// the terminal already shows it.
	echo bool
}

// Turn runs one cycle. Connectivity failures are rendered inline and leave
// the dashboard unchanged; only render failures are returned.
func (s *chatSession) Turn(ctx context.Context, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}
	if s.echo {
		if err := s.out.RenderUser(msg); err != nil {
			return err
		}
	}
	resp, err := s.client.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, transport.ErrEmptyMessage) {
			return nil
		}
		s.logger.Debug("send failed", zap.Error(err))
		return s.out.RenderError(render.ConnectivityErrorText)
	}
	if err := s.out.RenderBot(resp.Response); err != nil {
		return err
	}
	return s.out.RenderDashboard(s.dashboard.Apply(resp.Payload()))
}

// Run reads one message per line from in until EOF, "exit" or "quit".
func (s *chatSession) Run(ctx context.Context, in io.Reader, prompt io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, "› ")
		if !scanner.Scan() {
			fmt.Fprintln(prompt)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := s.Turn(ctx, line); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
