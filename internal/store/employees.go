package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, first_name, last_name, email,
	COALESCE(position, ''), created_at, updated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email,
		&e.Position, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns staff records, oldest first. Employees can be
// attached to orders as the responsible salesperson.
func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	return employees, nil
}

// CreateEmployeeParams holds the writable employee fields.
type CreateEmployeeParams struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Position  string `json:"position"`
}

// CreateEmployee inserts a staff record and returns the stored row.
func (s *Store) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (*Employee, error) {
	e, err := scanEmployee(s.db.QueryRow(ctx,
		`INSERT INTO employees (first_name, last_name, email, position)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 RETURNING `+employeeColumns,
		params.FirstName, params.LastName, params.Email, params.Position))
	if err != nil {
		return nil, fmt.Errorf("creating employee: %w", err)
	}
	return e, nil
}
