package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/seritra/hrbot/pkg/hr"
)

// fakeRepo is an in-memory hr.Repository for executor tests.
type fakeRepo struct {
	balance     *hr.LeaveBalance
	balanceErr  error
	salaries    []hr.SalaryRecord
	salariesErr error
	requests    []hr.LeaveRequest
	requestsErr error
	createErr   error
	created     []hr.LeaveRequest
}

func (f *fakeRepo) GetBalance(ctx context.Context, employeeID int64) (*hr.LeaveBalance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if f.balance == nil {
		return nil, hr.ErrNotFound
	}
	return f.balance, nil
}

func (f *fakeRepo) GetSalaryHistory(ctx context.Context, employeeID int64) ([]hr.SalaryRecord, error) {
	return f.salaries, f.salariesErr
}

func (f *fakeRepo) GetLeaveRequests(ctx context.Context, employeeID int64, status *hr.LeaveStatus) ([]hr.LeaveRequest, error) {
	if f.requestsErr != nil {
		return nil, f.requestsErr
	}
	if status == nil {
		return f.requests, nil
	}
	var out []hr.LeaveRequest
	for _, r := range f.requests {
		if r.Status == *status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateLeaveRequest(ctx context.Context, employeeID int64, start, end time.Time, reason string) (*hr.LeaveRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	req := hr.LeaveRequest{
		ID:         int64(len(f.created) + 1),
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Reason:     reason,
		Status:     hr.LeavePending,
	}
	f.created = append(f.created, req)
	return &req, nil
}

func testEmployee() *hr.Employee {
	hire, _ := time.Parse("2006-01-02", "2020-03-16")
	return &hr.Employee{
		ID:             7,
		FullName:       "Ada Lovelace",
		Email:          "ada@example.com",
		DepartmentID:   1,
		DepartmentName: "Engineering",
		Role:           hr.RoleEmployee,
		HireDate:       hire,
		Salary:         5200,
	}
}

// newTestExecutor pins "today" to 2024-01-01 so date rules are stable.
func newTestExecutor(repo hr.Repository) *Executor {
	e := NewExecutor(repo)
	e.now = func() time.Time {
		return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	}
	return e
}

func errorText(t *testing.T, res Result) string {
	t.Helper()
	v, ok := res["error"]
	if !ok {
		t.Fatalf("expected error payload, got %v", res)
	}
	return v.(string)
}

func TestGetLeaveBalance(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{TotalDays: 30, UsedDays: 5, RemainingDays: 25}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetLeaveBalance})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["remaining_days"] != 25 {
		t.Errorf("unexpected payload: %v", res)
	}
}

func TestGetLeaveBalanceAbsent(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetLeaveBalance})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "No leave balance found" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestGetEmployeeInfo(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetEmployeeInfo})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["name"] != "Ada Lovelace" || res["department"] != "Engineering" {
		t.Errorf("unexpected payload: %v", res)
	}
	if res["hire_date"] != "2020-03-16" {
		t.Errorf("unexpected hire date: %v", res["hire_date"])
	}
	if res["position"] != "Employee" {
		t.Errorf("unexpected position: %v", res["position"])
	}
}

func TestGetEmployeeInfoNoDepartment(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})
	emp := testEmployee()
	emp.DepartmentName = ""

	res, err := e.Execute(context.Background(), emp, Invocation{Name: OpGetEmployeeInfo})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["department"] != "N/A" {
		t.Errorf("expected N/A department, got %v", res["department"])
	}
}

func TestGetSalaryInfo(t *testing.T) {
	eff, _ := time.Parse("2006-01-02", "2025-01-01")
	repo := &fakeRepo{salaries: []hr.SalaryRecord{
		{Amount: 5200, EffectiveDate: eff},
		{Amount: 4800},
	}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetSalaryInfo})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["current_salary"] != 5200.0 {
		t.Errorf("unexpected salary: %v", res["current_salary"])
	}
	if res["history_count"] != 2 {
		t.Errorf("unexpected history count: %v", res["history_count"])
	}
	if res["effective_date"] != "2025-01-01" {
		t.Errorf("unexpected effective date: %v", res["effective_date"])
	}
}

func TestGetSalaryInfoEmpty(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetSalaryInfo})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "No salary information found" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestGetLeaveRequestsEmpty(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetLeaveRequests})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["message"] != "No leave requests found" {
		t.Errorf("unexpected payload: %v", res)
	}
}

func TestGetLeaveRequestsCapsAtFive(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 7; i++ {
		start := time.Date(2023, 6, 1+i, 0, 0, 0, 0, time.UTC)
		repo.requests = append(repo.requests, hr.LeaveRequest{
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 1),
			Status:    hr.LeaveApproved,
		})
	}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetLeaveRequests})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	details := res["requests"].([]map[string]interface{})
	if len(details) != 5 {
		t.Errorf("expected 5 detailed requests, got %d", len(details))
	}
	if res["total"] != 7 {
		t.Errorf("expected true total 7, got %v", res["total"])
	}
	if details[0]["duration_days"] != 2 {
		t.Errorf("unexpected duration: %v", details[0]["duration_days"])
	}
	if details[0]["reason"] != "N/A" {
		t.Errorf("expected N/A reason fallback, got %v", details[0]["reason"])
	}
}

func requestLeaveArgs(start, end string) Invocation {
	return Invocation{
		Name: OpRequestLeave,
		Args: map[string]interface{}{"start_date": start, "end_date": end},
	}
}

func TestRequestLeaveSuccess(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["success"] != true {
		t.Fatalf("expected success, got %v", res)
	}
	if res["duration_days"] != 3 {
		t.Errorf("expected duration 3, got %v", res["duration_days"])
	}
	if res["reason"] != "Personal" {
		t.Errorf("expected default reason, got %v", res["reason"])
	}
	if res["status"] != "Pending approval" {
		t.Errorf("unexpected status: %v", res["status"])
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created request, got %d", len(repo.created))
	}
	if repo.created[0].Reason != "Personal" {
		t.Errorf("unexpected persisted reason: %q", repo.created[0].Reason)
	}
}

func TestRequestLeaveNotDeduplicated(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	// Identical submissions each create a distinct record.
	for i := 0; i < 2; i++ {
		res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if res["success"] != true {
			t.Fatalf("expected success, got %v", res)
		}
	}
	if len(repo.created) != 2 {
		t.Errorf("expected 2 distinct records, got %d", len(repo.created))
	}
	if repo.created[0].ID == repo.created[1].ID {
		t.Error("expected distinct record ids")
	}
}

func TestRequestLeaveSingleDay(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 1}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-05", "2024-01-05"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["success"] != true || res["duration_days"] != 1 {
		t.Errorf("expected single day success, got %v", res)
	}
}

func TestRequestLeaveInvalidFormat(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	// Format errors win even when other rules would also fail.
	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("10/01/2024", "2023-01-01"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); !strings.HasPrefix(got, "Invalid date format:") {
		t.Errorf("unexpected error text: %q", got)
	}
	if len(repo.created) != 0 {
		t.Error("expected no record created")
	}
}

func TestRequestLeaveStartAfterEnd(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-12", "2024-01-10"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "Start date must be before end date" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestRequestLeavePastDate(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2023-12-28", "2024-01-02"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "Cannot request leave for past dates" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestRequestLeaveStartingToday(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 10}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-01", "2024-01-02"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res["success"] != true {
		t.Errorf("expected leave starting today to be accepted, got %v", res)
	}
}

func TestRequestLeaveInsufficientBalance(t *testing.T) {
	repo := &fakeRepo{balance: &hr.LeaveBalance{RemainingDays: 2}}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "Insufficient balance. Remaining: 2 days" {
		t.Errorf("unexpected error text: %q", got)
	}
	if len(repo.created) != 0 {
		t.Error("expected no record created")
	}
}

func TestRequestLeaveNoBalanceRecord(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "Insufficient balance. Remaining: 0 days" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestRequestLeavePendingCap(t *testing.T) {
	repo := &fakeRepo{
		balance: &hr.LeaveBalance{RemainingDays: 20},
		requests: []hr.LeaveRequest{
			{Status: hr.LeavePending},
			{Status: hr.LeavePending},
			{Status: hr.LeaveApproved},
		},
	}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "You already have 2 pending requests" {
		t.Errorf("unexpected error text: %q", got)
	}
	if len(repo.created) != 0 {
		t.Error("expected no record created")
	}
}

func TestRequestLeaveBalanceCheckedBeforePendingCap(t *testing.T) {
	repo := &fakeRepo{
		balance: &hr.LeaveBalance{RemainingDays: 1},
		requests: []hr.LeaveRequest{
			{Status: hr.LeavePending},
			{Status: hr.LeavePending},
		},
	}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); got != "Insufficient balance. Remaining: 1 days" {
		t.Errorf("expected balance error to win, got %q", got)
	}
}

func TestRequestLeaveCreateFailure(t *testing.T) {
	repo := &fakeRepo{
		balance:   &hr.LeaveBalance{RemainingDays: 20},
		createErr: fmt.Errorf("disk full"),
	}
	e := newTestExecutor(repo)

	res, err := e.Execute(context.Background(), testEmployee(), requestLeaveArgs("2024-01-10", "2024-01-12"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := errorText(t, res); !strings.HasPrefix(got, "Failed to create request:") {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestReadFailurePropagates(t *testing.T) {
	repo := &fakeRepo{balanceErr: errors.New("connection reset")}
	e := newTestExecutor(repo)

	if _, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: OpGetLeaveBalance}); err == nil {
		t.Fatal("expected infrastructure error to propagate")
	}
}

func TestUnknownOperation(t *testing.T) {
	e := newTestExecutor(&fakeRepo{})

	if _, err := e.Execute(context.Background(), testEmployee(), Invocation{Name: "promote_me"}); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}
