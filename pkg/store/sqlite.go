// Package store persists the HR domain in SQLite and implements the
// repository contracts consumed by the agent core and the transport.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/seritra/hrbot/pkg/hr"

	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent exchanges.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Store is a SQLite-backed implementation of hr.Repository and
// hr.Directory.
type Store struct {
	db *sql.DB
}

// New creates a store and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS departments (
			department_id INTEGER PRIMARY KEY AUTOINCREMENT,
			department_name TEXT NOT NULL UNIQUE,
			manager_id INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS employees (
			employee_id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			department_id INTEGER NOT NULL REFERENCES departments(department_id),
			role TEXT NOT NULL DEFAULT 'Employee',
			hire_date TEXT NOT NULL,
			salary REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS leave_balances (
			employee_id INTEGER PRIMARY KEY REFERENCES employees(employee_id),
			total_days INTEGER NOT NULL DEFAULT 30,
			used_days INTEGER NOT NULL DEFAULT 0,
			remaining_days INTEGER NOT NULL DEFAULT 30,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS leave_requests (
			leave_id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id INTEGER NOT NULL REFERENCES employees(employee_id),
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			reason TEXT,
			status TEXT NOT NULL DEFAULT 'Pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_leave_requests_employee ON leave_requests(employee_id);`,
		`CREATE INDEX IF NOT EXISTS idx_leave_requests_status ON leave_requests(status);`,
		`CREATE TABLE IF NOT EXISTS salaries (
			salary_id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id INTEGER NOT NULL REFERENCES employees(employee_id),
			amount REAL NOT NULL,
			effective_date TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_salaries_employee ON salaries(employee_id);`,
		`CREATE TABLE IF NOT EXISTS chat_links (
			employee_id INTEGER PRIMARY KEY REFERENCES employees(employee_id),
			chat_id TEXT NOT NULL UNIQUE,
			linked_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetBalance returns the leave balance for an employee.
func (s *Store) GetBalance(ctx context.Context, employeeID int64) (*hr.LeaveBalance, error) {
	var b hr.LeaveBalance
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT employee_id, total_days, used_days, remaining_days, updated_at
		 FROM leave_balances WHERE employee_id = ?`, employeeID).
		Scan(&b.EmployeeID, &b.TotalDays, &b.UsedDays, &b.RemainingDays, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, hr.ErrNotFound
		}
		return nil, err
	}
	b.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &b, nil
}

// GetSalaryHistory returns salary records ordered newest first.
func (s *Store) GetSalaryHistory(ctx context.Context, employeeID int64) ([]hr.SalaryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT salary_id, employee_id, amount, effective_date, created_at
		 FROM salaries WHERE employee_id = ?
		 ORDER BY effective_date DESC, salary_id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.SalaryRecord
	for rows.Next() {
		var rec hr.SalaryRecord
		var effective string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Amount, &effective, &createdAt); err != nil {
			return nil, err
		}
		if rec.EffectiveDate, err = time.Parse(dateFormat, effective); err != nil {
			return nil, fmt.Errorf("salary %d: bad effective date %q: %w", rec.ID, effective, err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetLeaveRequests returns leave requests ordered by creation time,
// newest first, optionally filtered by status.
func (s *Store) GetLeaveRequests(ctx context.Context, employeeID int64, status *hr.LeaveStatus) ([]hr.LeaveRequest, error) {
	query := `SELECT leave_id, employee_id, start_date, end_date, reason, status, created_at, updated_at
		 FROM leave_requests WHERE employee_id = ?`
	args := []any{employeeID}
	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC, leave_id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// CreateLeaveRequest commits a new request in Pending status.
func (s *Store) CreateLeaveRequest(ctx context.Context, employeeID int64, start, end time.Time, reason string) (*hr.LeaveRequest, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_requests (employee_id, start_date, end_date, reason, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		employeeID, start.Format(dateFormat), end.Format(dateFormat), reason,
		string(hr.LeavePending), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &hr.LeaveRequest{
		ID:         id,
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Reason:     reason,
		Status:     hr.LeavePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// GetEmployee returns an employee with its department name resolved.
func (s *Store) GetEmployee(ctx context.Context, employeeID int64) (*hr.Employee, error) {
	return s.getEmployee(ctx,
		`SELECT e.employee_id, e.full_name, e.email, e.department_id,
			COALESCE(d.department_name, ''), e.role, e.hire_date, e.salary
		 FROM employees e
		 LEFT JOIN departments d ON d.department_id = e.department_id
		 WHERE e.employee_id = ?`, employeeID)
}

// GetEmployeeByChatID resolves a linked chat identity to an employee.
func (s *Store) GetEmployeeByChatID(ctx context.Context, chatID string) (*hr.Employee, error) {
	return s.getEmployee(ctx,
		`SELECT e.employee_id, e.full_name, e.email, e.department_id,
			COALESCE(d.department_name, ''), e.role, e.hire_date, e.salary
		 FROM employees e
		 JOIN chat_links c ON c.employee_id = e.employee_id
		 LEFT JOIN departments d ON d.department_id = e.department_id
		 WHERE c.chat_id = ?`, chatID)
}

func (s *Store) getEmployee(ctx context.Context, query string, arg any) (*hr.Employee, error) {
	var emp hr.Employee
	var role, hireDate string
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.DepartmentID,
			&emp.DepartmentName, &role, &hireDate, &emp.Salary)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, hr.ErrNotFound
		}
		return nil, err
	}
	emp.Role = hr.Role(role)
	if emp.HireDate, err = time.Parse(dateFormat, hireDate); err != nil {
		return nil, fmt.Errorf("employee %d: bad hire date %q: %w", emp.ID, hireDate, err)
	}
	return &emp, nil
}

// LinkChat binds a chat identity to an employee, replacing any
// previous link for that employee.
func (s *Store) LinkChat(ctx context.Context, employeeID int64, chatID string) error {
	now := time.Now().UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_links (employee_id, chat_id, linked_at) VALUES (?, ?, ?)
		 ON CONFLICT(employee_id) DO UPDATE SET chat_id = excluded.chat_id, linked_at = excluded.linked_at`,
		employeeID, chatID, now)
	return err
}

// UnlinkChat removes the link for a chat identity.
func (s *Store) UnlinkChat(ctx context.Context, chatID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_links WHERE chat_id = ?`, chatID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return hr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeaveRequest(row rowScanner) (*hr.LeaveRequest, error) {
	var req hr.LeaveRequest
	var start, end string
	var reason sql.NullString
	var status string
	var createdAt, updatedAt int64
	if err := row.Scan(&req.ID, &req.EmployeeID, &start, &end, &reason, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if req.StartDate, err = time.Parse(dateFormat, start); err != nil {
		return nil, fmt.Errorf("leave %d: bad start date %q: %w", req.ID, start, err)
	}
	if req.EndDate, err = time.Parse(dateFormat, end); err != nil {
		return nil, fmt.Errorf("leave %d: bad end date %q: %w", req.ID, end, err)
	}
	req.Reason = reason.String
	req.Status = hr.LeaveStatus(status)
	req.CreatedAt = time.UnixMilli(createdAt).UTC()
	req.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &req, nil
}

var (
	_ hr.Repository = (*Store)(nil)
	_ hr.Directory  = (*Store)(nil)
)
