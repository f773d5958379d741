package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture describes seed data loaded from a YAML file. It mirrors the
// table layout so a fixture file reads like the database it produces.
type Fixture struct {
	Departments []FixtureDepartment `yaml:"departments"`
	Employees   []FixtureEmployee   `yaml:"employees"`
}

type FixtureDepartment struct {
	Name      string `yaml:"name"`
	ManagerID int64  `yaml:"manager_id,omitempty"`
}

type FixtureEmployee struct {
	FullName   string          `yaml:"full_name"`
	Email      string          `yaml:"email"`
	Department string          `yaml:"department"`
	Role       string          `yaml:"role,omitempty"`
	HireDate   string          `yaml:"hire_date"`
	Salary     float64         `yaml:"salary"`
	Balance    *FixtureBalance `yaml:"balance,omitempty"`
	Leaves     []FixtureLeave  `yaml:"leaves,omitempty"`
	Salaries   []FixtureSalary `yaml:"salaries,omitempty"`
}

type FixtureBalance struct {
	TotalDays int `yaml:"total_days"`
	UsedDays  int `yaml:"used_days"`
}

type FixtureLeave struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Reason    string `yaml:"reason,omitempty"`
	Status    string `yaml:"status,omitempty"`
}

type FixtureSalary struct {
	Amount        float64 `yaml:"amount"`
	EffectiveDate string  `yaml:"effective_date"`
}

// LoadFixture parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Seed inserts the fixture contents. Departments are created first so
// employees can reference them by name.
func (s *Store) Seed(ctx context.Context, f *Fixture) error {
	now := time.Now().UTC().UnixMilli()

	deptIDs := make(map[string]int64, len(f.Departments))
	for _, d := range f.Departments {
		var manager any
		if d.ManagerID != 0 {
			manager = d.ManagerID
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO departments (department_name, manager_id) VALUES (?, ?)
			 ON CONFLICT(department_name) DO UPDATE SET manager_id = excluded.manager_id`,
			d.Name, manager); err != nil {
			return fmt.Errorf("seed department %q: %w", d.Name, err)
		}
		var id int64
		if err := s.db.QueryRowContext(ctx,
			`SELECT department_id FROM departments WHERE department_name = ?`, d.Name).Scan(&id); err != nil {
			return err
		}
		deptIDs[d.Name] = id
	}

	for _, e := range f.Employees {
		deptID, ok := deptIDs[e.Department]
		if !ok {
			return fmt.Errorf("employee %q references unknown department %q", e.FullName, e.Department)
		}
		if _, err := time.Parse(dateFormat, e.HireDate); err != nil {
			return fmt.Errorf("employee %q: bad hire date %q: %w", e.FullName, e.HireDate, err)
		}
		role := e.Role
		if role == "" {
			role = "Employee"
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO employees (full_name, email, department_id, role, hire_date, salary)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.FullName, e.Email, deptID, role, e.HireDate, e.Salary)
		if err != nil {
			return fmt.Errorf("seed employee %q: %w", e.FullName, err)
		}
		empID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		bal := e.Balance
		if bal == nil {
			bal = &FixtureBalance{TotalDays: 30}
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO leave_balances (employee_id, total_days, used_days, remaining_days, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			empID, bal.TotalDays, bal.UsedDays, bal.TotalDays-bal.UsedDays, now); err != nil {
			return fmt.Errorf("seed balance for %q: %w", e.FullName, err)
		}

		for _, l := range e.Leaves {
			status := l.Status
			if status == "" {
				status = "Pending"
			}
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO leave_requests (employee_id, start_date, end_date, reason, status, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				empID, l.StartDate, l.EndDate, l.Reason, status, now, now); err != nil {
				return fmt.Errorf("seed leave for %q: %w", e.FullName, err)
			}
		}

		for _, sr := range e.Salaries {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO salaries (employee_id, amount, effective_date, created_at)
				 VALUES (?, ?, ?, ?)`,
				empID, sr.Amount, sr.EffectiveDate, now); err != nil {
				return fmt.Errorf("seed salary for %q: %w", e.FullName, err)
			}
		}
	}
	return nil
}
