// Copyright 2026 © The HRBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the HR assistant core: a fixed catalog of
// operations, an executor enforcing the leave business rules, and the
// two-round exchange loop that lets an LLM orchestrate them.
package agent

import (
	"fmt"

	"github.com/seritra/hrbot/pkg/llm"
)

// Operation names exposed to the model.
const (
	OpGetLeaveBalance  = "get_leave_balance"
	OpGetEmployeeInfo  = "get_employee_info"
	OpGetSalaryInfo    = "get_salary_info"
	OpGetLeaveRequests = "get_leave_requests"
	OpRequestLeave     = "request_leave"
)

// Operation describes one callable capability: its wire name, the
// description shown to the model, and a JSON schema for its arguments.
type Operation struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Required    []string
}

// Registry is the fixed operation catalog. The set of operations is
// decided at build time; there is no dynamic registration.
type Registry struct {
	ops   map[string]Operation
	order []string
}

// NewRegistry builds the catalog of the five HR operations.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]Operation)}

	emptyObject := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}

	r.add(Operation{
		Name:        OpGetLeaveBalance,
		Description: "Get the employee's current leave balance (total, used, remaining days)",
		Parameters:  emptyObject,
	})
	r.add(Operation{
		Name:        OpGetEmployeeInfo,
		Description: "Get employee information (name, email, department, position, salary, hire date)",
		Parameters:  emptyObject,
	})
	r.add(Operation{
		Name:        OpGetSalaryInfo,
		Description: "Get employee salary information and history",
		Parameters:  emptyObject,
	})
	r.add(Operation{
		Name:        OpGetLeaveRequests,
		Description: "Get employee's leave request history with status",
		Parameters:  emptyObject,
	})
	r.add(Operation{
		Name:        OpRequestLeave,
		Description: "Submit a new leave request for the employee",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"start_date": map[string]interface{}{
					"type":        "string",
					"description": "Leave start date in YYYY-MM-DD format",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"description": "Leave end date in YYYY-MM-DD format",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Reason for leave (optional, default: Personal)",
				},
			},
			"required": []string{"start_date", "end_date"},
		},
		Required: []string{"start_date", "end_date"},
	})

	return r
}

func (r *Registry) add(op Operation) {
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
}

// Lookup returns the operation for a wire name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// ValidateArgs checks that every required argument is present and
// non-empty. Models occasionally omit required fields; this turns
// that into a reportable error instead of a downstream failure.
func (r *Registry) ValidateArgs(name string, args map[string]interface{}) error {
	op, ok := r.ops[name]
	if !ok {
		return fmt.Errorf("unknown operation: %s", name)
	}
	for _, req := range op.Required {
		v, ok := args[req]
		if !ok {
			return fmt.Errorf("missing required argument: %s", req)
		}
		if s, isStr := v.(string); isStr && s == "" {
			return fmt.Errorf("missing required argument: %s", req)
		}
	}
	return nil
}

// Tools renders the catalog in the shape LLM providers consume,
// in registration order.
func (r *Registry) Tools() []llm.Tool {
	tools := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		tools = append(tools, llm.Tool{
			Type: llm.ToolTypeFunction,
			Function: llm.FunctionDef{
				Name:        op.Name,
				Description: op.Description,
				Parameters:  op.Parameters,
			},
		})
	}
	return tools
}

// Names returns the operation names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
