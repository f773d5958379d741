// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	hrberrors "github.com/seritra/hrbot/pkg/errors"
	"github.com/seritra/hrbot/pkg/hr"
	"github.com/seritra/hrbot/pkg/llm"
	"github.com/seritra/hrbot/pkg/resilience"
	"github.com/seritra/hrbot/pkg/telemetry"
)

// Agent turns one incoming message into a bounded interaction: the
// model plans which operations to run, the executor runs them
// sequentially, and a second model round summarizes the results.
// There are at most two model rounds per exchange.
type Agent struct {
	provider llm.Provider
	registry *Registry
	executor *Executor
	logger   *slog.Logger
	metrics  *telemetry.ExchangeMetrics

	model       string
	temperature float64
	retry       resilience.RetryConfig
	timeout     resilience.TimeoutConfig
}

// Option configures the Agent.
type Option func(*Agent)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

// WithTemperature sets the sampling temperature for both rounds.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithRetry sets the retry policy for model calls. Only model calls
// are retried; operations run at most once per invocation.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(a *Agent) { a.retry = rc }
}

// WithTimeout bounds each model round.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = resilience.TimeoutConfig{Duration: d} }
}

// WithMetrics attaches exchange metrics.
func WithMetrics(m *telemetry.ExchangeMetrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New creates an agent over a model provider and an executor.
func New(provider llm.Provider, registry *Registry, executor *Executor, opts ...Option) *Agent {
	a := &Agent{
		provider:    provider,
		registry:    registry,
		executor:    executor,
		logger:      slog.Default(),
		temperature: 0.2,
		retry:       resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleExchange processes one user message for one principal and
// returns the assistant's reply.
func (a *Agent) HandleExchange(ctx context.Context, emp *hr.Employee, text string) (string, error) {
	exchangeID := uuid.NewString()
	log := a.logger.With("exchange_id", exchangeID, "employee_id", emp.ID)

	tools := a.registry.Tools()
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemInstruction(emp)},
		{Role: llm.RoleUser, Content: text},
	}

	resp, err := a.chat(ctx, 1, llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: a.temperature,
	})
	if err != nil {
		a.metrics.RecordExchange(ctx, "llm_error")
		return "", hrberrors.New(hrberrors.CodeLLMError, "language model round 1 failed", err)
	}

	if len(resp.ToolCalls) == 0 {
		log.Debug("exchange answered directly", "tokens", resp.Usage.TotalTokens)
		a.metrics.RecordExchange(ctx, "direct")
		return resp.Content, nil
	}

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	for _, call := range resp.ToolCalls {
		name := call.Function.Name
		if _, ok := a.registry.Lookup(name); !ok {
			log.Warn("skipping unknown operation", "operation", name)
			continue
		}

		result, err := a.invoke(ctx, emp, name, call.Function.Arguments)
		if err != nil {
			log.Error("operation failed", "operation", name, "error", err)
			a.metrics.RecordExchange(ctx, "operation_error")
			return "", err
		}
		_, failed := result["error"]
		a.metrics.RecordOperation(ctx, name, failed)
		log.Info("operation executed", "operation", name, "failed", failed)

		payload, err := json.Marshal(result)
		if err != nil {
			return "", hrberrors.New(hrberrors.CodeInternal, "encode operation result", err)
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: name,
			Content:    string(payload),
		})
	}

	final, err := a.chat(ctx, 2, llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: a.temperature,
	})
	if err != nil {
		a.metrics.RecordExchange(ctx, "llm_error")
		return "", hrberrors.New(hrberrors.CodeLLMError, "language model round 2 failed", err)
	}

	a.metrics.RecordExchange(ctx, "completed")
	return final.Content, nil
}

// invoke parses and validates arguments, then executes. Argument
// problems come back as error payloads the model can relay; only
// infrastructure failures return a Go error.
func (a *Agent) invoke(ctx context.Context, emp *hr.Employee, name, rawArgs string) (Result, error) {
	args := map[string]interface{}{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Result{"error": fmt.Sprintf("Invalid arguments: %v", err)}, nil
		}
	}
	if err := a.registry.ValidateArgs(name, args); err != nil {
		return Result{"error": err.Error()}, nil
	}
	return a.executor.Execute(ctx, emp, Invocation{Name: name, Args: args})
}

// chat runs one model round under the retry and timeout policies.
func (a *Agent) chat(ctx context.Context, round int, req llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordRound(ctx, round, time.Since(start))
	}()

	v, err := a.retry.DoWithResult(ctx, func() (interface{}, error) {
		return resilience.WithTimeoutResult(ctx, a.timeout, func(ctx context.Context) (interface{}, error) {
			return a.provider.Chat(ctx, req)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*llm.ChatResponse), nil
}

func systemInstruction(emp *hr.Employee) string {
	return fmt.Sprintf(`You are an HR assistant helping %s.

You have access to various HR functions. Use them to help the employee.

Guidelines:
- Be friendly and professional
- Use function calls to get data
- Respond in the same language as the user (Arabic/English)
- For greetings, respond naturally without calling functions
- For help requests, explain available capabilities
- Always confirm actions before executing (especially leave requests)

Available capabilities:
- Check leave balance
- View employee information
- Check salary details
- View leave request history
- Submit leave requests`, emp.FullName)
}
