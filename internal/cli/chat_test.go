package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/render"
	"github.com/hyperjump/cyborgbench/internal/transport"
)

type stubSender struct {
	replies []*models.ChatResponse
	errs    []error
	sent    []string
}

func (s *stubSender) Send(_ context.Context, msg string) (*models.ChatResponse, error) {
	i := len(s.sent)
	s.sent = append(s.sent, msg)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.replies[i], nil
}

func seconds(v float64) *float64 { return &v }

func searchReply() *models.ChatResponse {
	return &models.ChatResponse{
		Response: "Found 1 similar transaction(s), 0 flagged as fraud.",
		ModeUsed: models.ModeUsedSearch,
		Metrics:  &models.ResponseMetrics{Cyborg: seconds(0.02), Faiss: seconds(0.01), Chroma: seconds(0.04)},
	}
}

func chatReply() *models.ChatResponse {
	return &models.ChatResponse{Response: "Hello!", ModeUsed: models.ModeUsedChat, Metrics: &models.ResponseMetrics{}}
}

func newSession(t *testing.T, client sender, policy evaluator.Policy) (*chatSession, *bytes.Buffer) {
	t.Helper()
	eval, err := evaluator.New(policy)
	require.NoError(t, err)
	var buf bytes.Buffer
	return &chatSession{
		client:    client,
		dashboard: evaluator.NewDashboard(eval),
		out:       render.NewTerminal(&buf),
		logger:    zap.NewNop(),
		echo:      true,
	}, &buf
}

func TestChatSession_Turn(t *testing.T) {
	client := &stubSender{replies: []*models.ChatResponse{searchReply()}}
	s, buf := newSession(t, client, evaluator.DefaultPolicy())

	require.NoError(t, s.Turn(context.Background(), "  wire $500 "))
	assert.Equal(t, []string{"wire $500"}, client.sent)

	out := buf.String()
	assert.Contains(t, out, "wire $500")
	assert.Contains(t, out, "Found 1 similar transaction(s)")
	assert.Contains(t, out, "Router: SEARCH")
	assert.Contains(t, out, "100% Slower")
	assert.Contains(t, out, "50% Faster")
	assert.Equal(t, evaluator.ModeSearch, s.dashboard.Current().Mode)
}

func TestChatSession_connectivityErrorKeepsDashboard(t *testing.T) {
	client := &stubSender{
		replies: []*models.ChatResponse{searchReply(), nil},
		errs:    []error{nil, fmt.Errorf("%w: dial tcp: refused", transport.ErrConnectivity)},
	}
	s, buf := newSession(t, client, evaluator.DefaultPolicy())

	require.NoError(t, s.Turn(context.Background(), "wire $500"))
	before := s.dashboard.Current()
	require.NoError(t, s.Turn(context.Background(), "wire $600"))

	assert.Contains(t, buf.String(), render.ConnectivityErrorText)
	assert.Equal(t, before, s.dashboard.Current())
}

func TestChatSession_retainPolicy(t *testing.T) {
	policy := evaluator.DefaultPolicy()
	policy.ChatMetrics = evaluator.ChatMetricsRetain
	client := &stubSender{replies: []*models.ChatResponse{searchReply(), chatReply()}}
	s, _ := newSession(t, client, policy)

	require.NoError(t, s.Turn(context.Background(), "wire $500"))
	require.NoError(t, s.Turn(context.Background(), "hello"))

	current := s.dashboard.Current()
	assert.Equal(t, evaluator.ModeChat, current.Mode)
	assert.Equal(t, "0.0200s", current.Latency[evaluator.BackendCyborg])
	assert.Equal(t, evaluator.Slower, current.Overhead[evaluator.BackendFaiss].Qualifier)
}

func TestChatSession_blankMessageIsIgnored(t *testing.T) {
	client := &stubSender{}
	s, buf := newSession(t, client, evaluator.DefaultPolicy())
	require.NoError(t, s.Turn(context.Background(), "   "))
	assert.Empty(t, client.sent)
	assert.Empty(t, buf.String())
}

func TestChatSession_Run(t *testing.T) {
	client := &stubSender{replies: []*models.ChatResponse{chatReply(), searchReply()}}
	s, buf := newSession(t, client, evaluator.DefaultPolicy())
	s.echo = false

	var prompt bytes.Buffer
	in := strings.NewReader("hello\n\nwire $500\nexit\nnever sent\n")
	require.NoError(t, s.Run(context.Background(), in, &prompt))

	assert.Equal(t, []string{"hello", "wire $500"}, client.sent)
	assert.Equal(t, 4, strings.Count(prompt.String(), "› "))
	assert.NotContains(t, buf.String(), "you ›")
}

func TestChatSession_RunStopsOnCancel(t *testing.T) {
	client := &stubSender{replies: []*models.ChatResponse{chatReply(), chatReply()}}
	s, _ := newSession(t, client, evaluator.DefaultPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, strings.NewReader("hello\nagain\n"), &bytes.Buffer{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, client.sent, 1)
}
