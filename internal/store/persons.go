package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const personColumns = `id, first_name, last_name, email,
	COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email,
		&p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPersonByEmail looks a customer up by exact email. The found flag
// is false when no customer has that email.
func (s *Store) GetPersonByEmail(ctx context.Context, email string) (*Person, bool, error) {
	p, err := scanPerson(s.db.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting person by email: %w", err)
	}
	return p, true, nil
}

// ListPersons returns customers ordered by id.
func (s *Store) ListPersons(ctx context.Context, limit, offset int) ([]Person, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+personColumns+` FROM persons ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	return persons, nil
}

// CreatePersonParams holds the writable customer fields.
type CreatePersonParams struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// CreatePerson inserts a customer and returns the stored row.
func (s *Store) CreatePerson(ctx context.Context, params CreatePersonParams) (*Person, error) {
	p, err := scanPerson(s.db.QueryRow(ctx,
		`INSERT INTO persons (first_name, last_name, email, phone, address)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		 RETURNING `+personColumns,
		params.FirstName, params.LastName, params.Email, params.Phone, params.Address))
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}
	return p, nil
}
