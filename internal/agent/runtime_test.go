package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/dealroom/internal/api"
	"github.com/ShayCichocki/dealroom/pkg/models"
)

// scriptedBackend returns queued responses in order.
type scriptedBackend struct {
	name      string
	mu        sync.Mutex
	responses []*api.Response
	err       error
	requests  []api.Request
	block     bool
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Complete(ctx context.Context, request api.Request) (*api.Response, error) {
	b.mu.Lock()
	b.requests = append(b.requests, request)
	b.mu.Unlock()

	if b.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.err != nil {
		return nil, b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := b.responses[0]
	if len(b.responses) > 1 {
		b.responses = b.responses[1:]
	}
	return resp, nil
}

func (b *scriptedBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

type recordingExecutor struct {
	calls  []string
	result string
}

func (e *recordingExecutor) Execute(_ context.Context, name string, _ json.RawMessage) string {
	e.calls = append(e.calls, name)
	return e.result
}

func toolResponse(name string) *api.Response {
	return &api.Response{ToolCalls: []models.ToolCall{{ID: "call_" + name, Name: name, Arguments: json.RawMessage(`{"team_id":1}`)}}}
}

var testHistory = []models.ChatMessage{{Role: models.ChatRoleUser, Content: "Hawks: we want a center"}}

func TestGenerateReply_PrimaryText(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{{Content: "We accept."}}}
	rt := NewRuntime(Config{Name: "Rams", Persona: "You are the Rams GM.", Primary: primary})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != "We accept." || reply.Failed {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Role != models.ChatRoleAssistant {
		t.Errorf("Role = %q, want assistant", reply.Role)
	}
	if reply.Backend != "anthropic" {
		t.Errorf("Backend = %q", reply.Backend)
	}
	if got := primary.requests[0].System; got != "You are the Rams GM." {
		t.Errorf("System = %q, persona should be prepended", got)
	}
}

func TestGenerateReply_BothBackendsFail(t *testing.T) {
	local := &scriptedBackend{name: "ollama", err: errors.New("connection refused")}
	rt := NewRuntime(Config{Name: "Hawks", Local: local})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if !reply.Failed {
		t.Fatal("expected a synthesized failure reply")
	}
	for _, want := range []string{"ollama", "connection refused", "anthropic", "no API credential configured"} {
		if !strings.Contains(reply.Content, want) {
			t.Errorf("reply should mention %q: %s", want, reply.Content)
		}
	}
}

func TestGenerateReply_NoBackends(t *testing.T) {
	reply := NewRuntime(Config{Name: "Hawks"}).GenerateReply(context.Background(), nil, 0)
	if !reply.Failed {
		t.Fatalf("reply = %+v, want failed", reply)
	}
	for _, want := range []string{"local: no endpoint configured", "anthropic: no API credential configured"} {
		if !strings.Contains(reply.Content, want) {
			t.Errorf("reply should mention %q: %s", want, reply.Content)
		}
	}
}

func TestGenerateReply_LocalFirstWithoutCredential(t *testing.T) {
	local := &scriptedBackend{name: "ollama", responses: []*api.Response{{Content: "local answer"}}}
	rt := NewRuntime(Config{Name: "Hawks", Local: local})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != "local answer" || reply.Backend != "ollama" {
		t.Errorf("reply = %+v", reply)
	}
	if len(local.requests[0].Tools) != 0 {
		t.Error("local backend should not receive tools")
	}
}

func TestGenerateReply_LocalSkippedWithCredential(t *testing.T) {
	local := &scriptedBackend{name: "ollama", responses: []*api.Response{{Content: "local answer"}}}
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{{Content: "primary answer"}}}
	rt := NewRuntime(Config{Name: "Hawks", Local: local, Primary: primary})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != "primary answer" {
		t.Errorf("Content = %q", reply.Content)
	}
	if local.calls() != 0 {
		t.Errorf("local backend called %d times, want 0", local.calls())
	}
}

func TestGenerateReply_LocalTimeout(t *testing.T) {
	local := &scriptedBackend{name: "ollama", block: true}
	rt := NewRuntime(Config{Name: "Hawks", Local: local, LocalTimeout: 20 * time.Millisecond})

	start := time.Now()
	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if time.Since(start) > 2*time.Second {
		t.Fatal("local timeout was not applied")
	}
	if !reply.Failed || !strings.Contains(reply.Content, "deadline exceeded") {
		t.Errorf("reply = %+v", reply)
	}
}

func TestGenerateReply_InvalidCredential(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", err: &api.ProviderError{Backend: "anthropic", StatusCode: 401, Message: "bad key"}}
	reply := NewRuntime(Config{Name: "Hawks", Primary: primary}).GenerateReply(context.Background(), testHistory, 3)

	if !reply.Failed || !strings.Contains(reply.Content, "invalid credential") {
		t.Errorf("reply = %+v", reply)
	}
}

func TestGenerateReply_RateLimited(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", err: &api.ProviderError{Backend: "anthropic", StatusCode: 429, Message: "slow down"}}
	reply := NewRuntime(Config{Name: "Hawks", Primary: primary}).GenerateReply(context.Background(), testHistory, 3)

	if !reply.Failed || !strings.Contains(reply.Content, "anthropic (rate limited, try again shortly)") {
		t.Errorf("reply = %+v", reply)
	}
}

func TestGenerateReply_ToolLoop(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{
		toolResponse(api.ToolGetTeamRoster),
		{Content: "Your roster is thin at center."},
	}}
	exec := &recordingExecutor{result: "Hawks roster"}
	specs := api.ToolDefinitions()
	rt := NewRuntime(Config{Name: "Hawks", Primary: primary, Executor: exec, Tools: specs})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != "Your roster is thin at center." {
		t.Fatalf("Content = %q", reply.Content)
	}
	if len(exec.calls) != 1 || exec.calls[0] != api.ToolGetTeamRoster {
		t.Errorf("executor calls = %v", exec.calls)
	}

	second := primary.requests[1]
	if len(second.Tools) != len(specs) {
		t.Errorf("tools = %d, want %d", len(second.Tools), len(specs))
	}
	last := second.Messages[len(second.Messages)-1]
	if last.Role != models.ChatRoleTool || last.Content != "Hawks roster" || last.ToolCallID != "call_"+api.ToolGetTeamRoster {
		t.Errorf("last message = %+v, want tool result", last)
	}
	if len(testHistory) != 1 {
		t.Error("caller history must not be modified")
	}
}

func TestGenerateReply_ToolBudgetExhausted(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{toolResponse(api.ToolGetTeamNeeds)}}
	exec := &recordingExecutor{result: "needs"}
	rt := NewRuntime(Config{Name: "Hawks", Primary: primary, Executor: exec})

	reply := rt.GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != PartialAnalysisMessage {
		t.Errorf("Content = %q, want canned partial analysis", reply.Content)
	}
	if reply.Failed {
		t.Error("budget exhaustion is not a backend failure")
	}
	if primary.calls() != 3 {
		t.Errorf("backend calls = %d, want 3", primary.calls())
	}
	if len(exec.calls) != 2 {
		t.Errorf("tool executions = %d, want 2", len(exec.calls))
	}
}

func TestGenerateReply_NilExecutor(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{
		toolResponse(api.ToolGetTeamRoster),
		{Content: "done"},
	}}
	reply := NewRuntime(Config{Name: "Hawks", Primary: primary}).GenerateReply(context.Background(), testHistory, 3)
	if reply.Content != "done" {
		t.Fatalf("Content = %q", reply.Content)
	}
	msgs := primary.requests[1].Messages
	if got := msgs[len(msgs)-1].Content; got != NoExecutorResult {
		t.Errorf("tool result = %q, want %q", got, NoExecutorResult)
	}
}

func TestGenerateReply_MalformedArguments(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{
		{ToolCalls: []models.ToolCall{{ID: "c1", Name: api.ToolEvaluateTrade, Arguments: json.RawMessage(`{"offering`)}}},
		{Content: "ok"},
	}}
	exec := &recordingExecutor{result: "unused"}
	reply := NewRuntime(Config{Name: "Hawks", Primary: primary, Executor: exec}).GenerateReply(context.Background(), testHistory, 3)

	if reply.Content != "ok" {
		t.Fatalf("Content = %q", reply.Content)
	}
	if len(exec.calls) != 0 {
		t.Error("executor should not run with malformed arguments")
	}
	msgs := primary.requests[1].Messages
	if got := msgs[len(msgs)-1].Content; !strings.Contains(got, "malformed arguments") {
		t.Errorf("tool result = %q", got)
	}
}

func TestGenerateReply_VerbatimOverwrite(t *testing.T) {
	analysis := api.VerbatimStart + "\nTrade analysis: Hawks <-> Rams\n" + api.VerbatimEnd
	tests := []struct {
		name  string
		final string
		want  string
	}{
		{"summarized", "The trade looks fine salary-wise.", analysis},
		{"kept", "Here it is:\n" + analysis + "\nThoughts?", "Here it is:\n" + analysis + "\nThoughts?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &scriptedBackend{name: "anthropic", responses: []*api.Response{
				toolResponse(api.ToolEvaluateTrade),
				{Content: tt.final},
			}}
			exec := &recordingExecutor{result: analysis}
			reply := NewRuntime(Config{Name: "Hawks", Primary: primary, Executor: exec}).GenerateReply(context.Background(), testHistory, 3)
			if reply.Content != tt.want {
				t.Errorf("Content = %q, want %q", reply.Content, tt.want)
			}
		})
	}
}

func TestEnforceVerbatim_Multiple(t *testing.T) {
	a := api.VerbatimStart + "a" + api.VerbatimEnd
	b := api.VerbatimStart + "b" + api.VerbatimEnd

	if got := enforceVerbatim("only "+a, []string{a, b}); got != a+"\n\n"+b {
		t.Errorf("got %q, want both outputs", got)
	}
	if got := enforceVerbatim("plain", nil); got != "plain" {
		t.Errorf("got %q, want unchanged", got)
	}
}

type panicBackend struct{}

func (panicBackend) Name() string { return "anthropic" }
func (panicBackend) Complete(context.Context, api.Request) (*api.Response, error) {
	panic("boom")
}

func TestGenerateReply_RecoversPanic(t *testing.T) {
	reply := NewRuntime(Config{Name: "Hawks", Primary: panicBackend{}}).GenerateReply(context.Background(), testHistory, 1)
	if !reply.Failed || !strings.Contains(reply.Content, "boom") {
		t.Errorf("reply = %+v", reply)
	}
}
