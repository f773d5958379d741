package hr

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no matching record exists.
var ErrNotFound = errors.New("hr: not found")

// Repository is the data access contract consumed by the operation
// executor. All lookups are scoped to a single employee id; the
// executor never reaches across principals.
type Repository interface {
	// GetBalance returns the leave balance for an employee, or
	// ErrNotFound when no balance record exists.
	GetBalance(ctx context.Context, employeeID int64) (*LeaveBalance, error)

	// GetSalaryHistory returns compensation records ordered by
	// effective date, newest first.
	GetSalaryHistory(ctx context.Context, employeeID int64) ([]SalaryRecord, error)

	// GetLeaveRequests returns leave requests ordered by creation
	// time, newest first. A non-nil status narrows the result.
	GetLeaveRequests(ctx context.Context, employeeID int64, status *LeaveStatus) ([]LeaveRequest, error)

	// CreateLeaveRequest commits a new request in Pending status.
	CreateLeaveRequest(ctx context.Context, employeeID int64, start, end time.Time, reason string) (*LeaveRequest, error)
}

// Directory resolves chat identities to employees. It is consumed by
// the transport layer for registration, not by the agent core.
type Directory interface {
	GetEmployee(ctx context.Context, employeeID int64) (*Employee, error)
	GetEmployeeByChatID(ctx context.Context, chatID string) (*Employee, error)
	LinkChat(ctx context.Context, employeeID int64, chatID string) error
	UnlinkChat(ctx context.Context, chatID string) error
}
