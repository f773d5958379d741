// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	hrberrors "github.com/seritra/hrbot/pkg/errors"
	"github.com/seritra/hrbot/pkg/hr"
)

const dateFormat = "2006-01-02"

// Result is the payload returned to the model for one operation.
// Business-rule violations and absent data travel inside it under an
// "error" or "message" key; they are answers, not failures.
type Result map[string]interface{}

// Invocation is one operation call requested by the model.
type Invocation struct {
	Name string
	Args map[string]interface{}
}

// Executor runs operations against the repository on behalf of one
// principal. Every operation is scoped to the given employee; there
// is no way to address another employee's records.
type Executor struct {
	repo hr.Repository
	now  func() time.Time
}

// NewExecutor creates an executor over the given repository.
func NewExecutor(repo hr.Repository) *Executor {
	return &Executor{repo: repo, now: time.Now}
}

// Execute dispatches one invocation. The returned error is reserved
// for infrastructure failures (repository outages); those abort the
// exchange. Everything the user can fix comes back inside the Result.
func (e *Executor) Execute(ctx context.Context, emp *hr.Employee, inv Invocation) (Result, error) {
	switch inv.Name {
	case OpGetLeaveBalance:
		return e.getLeaveBalance(ctx, emp)
	case OpGetEmployeeInfo:
		return e.getEmployeeInfo(emp), nil
	case OpGetSalaryInfo:
		return e.getSalaryInfo(ctx, emp)
	case OpGetLeaveRequests:
		return e.getLeaveRequests(ctx, emp)
	case OpRequestLeave:
		return e.requestLeave(ctx, emp, inv.Args)
	default:
		return nil, hrberrors.New(hrberrors.CodeInvalidInput,
			fmt.Sprintf("unknown operation: %s", inv.Name), nil)
	}
}

func (e *Executor) getLeaveBalance(ctx context.Context, emp *hr.Employee) (Result, error) {
	balance, err := e.repo.GetBalance(ctx, emp.ID)
	if err != nil {
		if errors.Is(err, hr.ErrNotFound) {
			return Result{"error": "No leave balance found"}, nil
		}
		return nil, storeErr("get balance", err)
	}
	return Result{
		"total_days":     balance.TotalDays,
		"used_days":      balance.UsedDays,
		"remaining_days": balance.RemainingDays,
	}, nil
}

func (e *Executor) getEmployeeInfo(emp *hr.Employee) Result {
	dept := emp.DepartmentName
	if dept == "" {
		dept = "N/A"
	}
	return Result{
		"name":       emp.FullName,
		"email":      emp.Email,
		"department": dept,
		"position":   string(emp.Role),
		"hire_date":  emp.HireDate.Format(dateFormat),
		"salary":     emp.Salary,
	}
}

func (e *Executor) getSalaryInfo(ctx context.Context, emp *hr.Employee) (Result, error) {
	history, err := e.repo.GetSalaryHistory(ctx, emp.ID)
	if err != nil {
		return nil, storeErr("get salary history", err)
	}
	if len(history) == 0 {
		return Result{"error": "No salary information found"}, nil
	}
	latest := history[0]
	return Result{
		"current_salary": latest.Amount,
		"effective_date": latest.EffectiveDate.Format(dateFormat),
		"history_count":  len(history),
	}, nil
}

func (e *Executor) getLeaveRequests(ctx context.Context, emp *hr.Employee) (Result, error) {
	requests, err := e.repo.GetLeaveRequests(ctx, emp.ID, nil)
	if err != nil {
		return nil, storeErr("get leave requests", err)
	}
	if len(requests) == 0 {
		return Result{"message": "No leave requests found"}, nil
	}

	recent := requests
	if len(recent) > 5 {
		recent = recent[:5]
	}
	details := make([]map[string]interface{}, 0, len(recent))
	for _, req := range recent {
		reason := req.Reason
		if reason == "" {
			reason = "N/A"
		}
		details = append(details, map[string]interface{}{
			"start_date":    req.StartDate.Format(dateFormat),
			"end_date":      req.EndDate.Format(dateFormat),
			"duration_days": req.Duration(),
			"status":        string(req.Status),
			"reason":        reason,
		})
	}
	return Result{"requests": details, "total": len(requests)}, nil
}

// requestLeave runs the validation pipeline in a fixed order: date
// format, date ordering, past dates, balance, pending cap. The first
// failing rule wins and nothing is written.
func (e *Executor) requestLeave(ctx context.Context, emp *hr.Employee, args map[string]interface{}) (Result, error) {
	reason := stringArg(args, "reason")
	if reason == "" {
		reason = "Personal"
	}

	start, err := time.Parse(dateFormat, stringArg(args, "start_date"))
	if err != nil {
		return Result{"error": fmt.Sprintf("Invalid date format: %v", err)}, nil
	}
	end, err := time.Parse(dateFormat, stringArg(args, "end_date"))
	if err != nil {
		return Result{"error": fmt.Sprintf("Invalid date format: %v", err)}, nil
	}

	if start.After(end) {
		return Result{"error": "Start date must be before end date"}, nil
	}
	if start.Before(e.today()) {
		return Result{"error": "Cannot request leave for past dates"}, nil
	}

	duration := int(end.Sub(start).Hours()/24) + 1

	remaining := 0
	balance, err := e.repo.GetBalance(ctx, emp.ID)
	if err != nil && !errors.Is(err, hr.ErrNotFound) {
		return nil, storeErr("get balance", err)
	}
	if balance != nil {
		remaining = balance.RemainingDays
	}
	if balance == nil || remaining < duration {
		return Result{"error": fmt.Sprintf("Insufficient balance. Remaining: %d days", remaining)}, nil
	}

	pending := hr.LeavePending
	pendingReqs, err := e.repo.GetLeaveRequests(ctx, emp.ID, &pending)
	if err != nil {
		return nil, storeErr("get pending requests", err)
	}
	if len(pendingReqs) >= 2 {
		return Result{"error": "You already have 2 pending requests"}, nil
	}

	if _, err := e.repo.CreateLeaveRequest(ctx, emp.ID, start, end, reason); err != nil {
		return Result{"error": fmt.Sprintf("Failed to create request: %v", err)}, nil
	}

	return Result{
		"success":       true,
		"start_date":    start.Format(dateFormat),
		"end_date":      end.Format(dateFormat),
		"duration_days": duration,
		"reason":        reason,
		"status":        "Pending approval",
	}, nil
}

// today is the current calendar date at midnight UTC, matching the
// zone produced by parsing plain dates.
func (e *Executor) today() time.Time {
	y, m, d := e.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func storeErr(op string, err error) error {
	return hrberrors.New(hrberrors.CodeStoreError, op+" failed", err)
}
