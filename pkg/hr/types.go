// Package hr defines the HR domain model and the repository contracts
// the agent core depends on. Types are plain values connected by id
// references; the store performs any joins explicitly.
package hr

import "time"

// Role classifies an employee within the organization.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleHR       Role = "HR"
)

// LeaveStatus is the lifecycle state of a leave request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "Pending"
	LeaveApproved LeaveStatus = "Approved"
	LeaveRejected LeaveStatus = "Rejected"
)

// Employee is the principal bound to one conversation. It is loaded
// once per incoming message and treated as immutable for the exchange.
type Employee struct {
	ID             int64
	FullName       string
	Email          string
	DepartmentID   int64
	DepartmentName string
	Role           Role
	HireDate       time.Time
	Salary         float64
}

// Department groups employees under an optional manager.
type Department struct {
	ID        int64
	Name      string
	ManagerID int64
}

// LeaveBalance tracks available leave days for one employee.
// Invariant: RemainingDays = TotalDays - UsedDays, both non-negative.
type LeaveBalance struct {
	EmployeeID    int64
	TotalDays     int
	UsedDays      int
	RemainingDays int
	UpdatedAt     time.Time
}

// LeaveRequest is a leave application. Start and end dates are
// inclusive calendar dates.
type LeaveRequest struct {
	ID         int64
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	Status     LeaveStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Duration returns the inclusive day span of the request.
func (r LeaveRequest) Duration() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// SalaryRecord is one entry in an employee's compensation history.
type SalaryRecord struct {
	ID            int64
	EmployeeID    int64
	Amount        float64
	EffectiveDate time.Time
	CreatedAt     time.Time
}
