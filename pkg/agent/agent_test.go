package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seritra/hrbot/pkg/hr"
	"github.com/seritra/hrbot/pkg/llm"
	"github.com/seritra/hrbot/pkg/resilience"
)

func newTestAgent(provider llm.Provider, repo hr.Repository) *Agent {
	executor := newTestExecutor(repo)
	return New(provider, NewRegistry(), executor,
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
	)
}

func toolCall(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:       name,
		Type:     llm.ToolTypeFunction,
		Function: llm.FunctionCall{Name: name, Arguments: args},
	}
}

func TestExchangeDirectAnswer(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.TextResponse("Hello! How can I help you today?"),
	)
	a := newTestAgent(scripted, &fakeRepo{})

	reply, err := a.HandleExchange(context.Background(), testEmployee(), "hi")
	if err != nil {
		t.Fatalf("HandleExchange failed: %v", err)
	}
	if reply != "Hello! How can I help you today?" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if scripted.CallCount != 1 {
		t.Errorf("expected a single round, got %d", scripted.CallCount)
	}

	req := scripted.Requests[0]
	if req.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", req.Temperature)
	}
	if len(req.Tools) != 5 {
		t.Errorf("expected 5 tools offered, got %d", len(req.Tools))
	}
	if req.Messages[0].Role != llm.RoleSystem ||
		!strings.Contains(req.Messages[0].Content, "Ada Lovelace") {
		t.Errorf("expected system instruction naming the employee, got %+v", req.Messages[0])
	}
}

func TestExchangeWithOperation(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(toolCall(OpGetLeaveBalance, "{}")),
		llm.TextResponse("You have 25 days remaining."),
	)
	repo := &fakeRepo{balance: &hr.LeaveBalance{TotalDays: 30, UsedDays: 5, RemainingDays: 25}}
	a := newTestAgent(scripted, repo)

	reply, err := a.HandleExchange(context.Background(), testEmployee(), "what is my balance?")
	if err != nil {
		t.Fatalf("HandleExchange failed: %v", err)
	}
	if reply != "You have 25 days remaining." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if scripted.CallCount != 2 {
		t.Fatalf("expected exactly two rounds, got %d", scripted.CallCount)
	}

	// Round 2 carries the full history: system, user, assistant, tool.
	round2 := scripted.Requests[1]
	if len(round2.Messages) != 4 {
		t.Fatalf("expected 4 messages in round 2, got %d", len(round2.Messages))
	}
	last := round2.Messages[3]
	if last.Role != llm.RoleTool || last.ToolCallID != OpGetLeaveBalance {
		t.Errorf("unexpected tool message: %+v", last)
	}
	if !strings.Contains(last.Content, `"remaining_days":25`) {
		t.Errorf("expected result payload in tool message, got %q", last.Content)
	}
}

func TestExchangeRequestLeave(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(toolCall(OpRequestLeave,
			`{"start_date":"2024-01-10","end_date":"2024-01-12"}`)),
		llm.TextResponse("Your leave request for 3 days has been submitted."),
	)
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	a := newTestAgent(scripted, repo)

	reply, err := a.HandleExchange(context.Background(), testEmployee(),
		"book leave from 2024-01-10 to 2024-01-12")
	if err != nil {
		t.Fatalf("HandleExchange failed: %v", err)
	}
	if !strings.Contains(reply, "3 days") {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created request, got %d", len(repo.created))
	}

	round2 := scripted.Requests[1]
	payload := round2.Messages[3].Content
	if !strings.Contains(payload, `"duration_days":3`) || !strings.Contains(payload, `"success":true`) {
		t.Errorf("unexpected result payload: %q", payload)
	}
}

func TestExchangeBusinessErrorStaysInPayload(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(toolCall(OpRequestLeave,
			`{"start_date":"2024-01-10","end_date":"2024-01-12"}`)),
		llm.TextResponse("Unfortunately you only have 2 days left."),
	)
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 2}}
	a := newTestAgent(scripted, repo)

	reply, err := a.HandleExchange(context.Background(), testEmployee(), "book 3 days off")
	if err != nil {
		t.Fatalf("expected business error to stay in payload, got %v", err)
	}
	if reply == "" {
		t.Error("expected a reply")
	}
	payload := scripted.Requests[1].Messages[3].Content
	if !strings.Contains(payload, "Insufficient balance. Remaining: 2 days") {
		t.Errorf("unexpected payload: %q", payload)
	}
	if len(repo.created) != 0 {
		t.Error("expected no record created")
	}
}

func TestExchangeSkipsUnknownOperations(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(
			toolCall("grant_promotion", "{}"),
			toolCall(OpGetLeaveBalance, "{}"),
		),
		llm.TextResponse("You have 25 days remaining."),
	)
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 25}}
	a := newTestAgent(scripted, repo)

	if _, err := a.HandleExchange(context.Background(), testEmployee(), "promote me and show balance"); err != nil {
		t.Fatalf("HandleExchange failed: %v", err)
	}

	// Only the known operation produces a tool message.
	round2 := scripted.Requests[1]
	toolMessages := 0
	for _, msg := range round2.Messages {
		if msg.Role == llm.RoleTool {
			toolMessages++
			if msg.ToolCallID != OpGetLeaveBalance {
				t.Errorf("unexpected tool message for %s", msg.ToolCallID)
			}
		}
	}
	if toolMessages != 1 {
		t.Errorf("expected 1 tool message, got %d", toolMessages)
	}
}

func TestExchangeMissingArgumentReported(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(toolCall(OpRequestLeave, `{"start_date":"2024-01-10"}`)),
		llm.TextResponse("Please tell me the end date."),
	)
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	a := newTestAgent(scripted, repo)

	if _, err := a.HandleExchange(context.Background(), testEmployee(), "book leave"); err != nil {
		t.Fatalf("HandleExchange failed: %v", err)
	}
	payload := scripted.Requests[1].Messages[3].Content
	if !strings.Contains(payload, "missing required argument: end_date") {
		t.Errorf("unexpected payload: %q", payload)
	}
	if len(repo.created) != 0 {
		t.Error("expected no record created")
	}
}

func TestExchangeLLMFailure(t *testing.T) {
	scripted := llm.NewScriptedMockProvider()
	scripted.Err = errors.New("upstream unavailable")
	a := newTestAgent(scripted, &fakeRepo{})

	if _, err := a.HandleExchange(context.Background(), testEmployee(), "hi"); err == nil {
		t.Fatal("expected error when the model is unavailable")
	}
}

func TestExchangeRepositoryFailure(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		llm.ToolCallResponse(toolCall(OpGetLeaveBalance, "{}")),
		llm.TextResponse("unused"),
	)
	repo := &fakeRepo{balanceErr: errors.New("connection reset")}
	a := newTestAgent(scripted, repo)

	if _, err := a.HandleExchange(context.Background(), testEmployee(), "balance?"); err == nil {
		t.Fatal("expected repository failure to abort the exchange")
	}
	if scripted.CallCount != 1 {
		t.Errorf("expected no second round after failure, got %d calls", scripted.CallCount)
	}
}
