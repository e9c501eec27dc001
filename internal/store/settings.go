package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `id, name, COALESCE(description, ''), COALESCE(personality, ''),
	COALESCE(sales_messaging, ''), created_at, updated_at`

// GetCompanySettings returns the singleton company profile. The found
// flag is false when no profile has been configured yet; callers
// degrade to a generic assistant persona in that case.
func (s *Store) GetCompanySettings(ctx context.Context) (*CompanySettings, bool, error) {
	var cs CompanySettings
	err := s.db.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM company_settings ORDER BY id LIMIT 1`).
		Scan(&cs.ID, &cs.Name, &cs.Description, &cs.Personality,
			&cs.SalesMessaging, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting company settings: %w", err)
	}
	return &cs, true, nil
}

// CompanySettingsParams holds the writable company profile fields.
type CompanySettingsParams struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Personality    string `json:"personality"`
	SalesMessaging string `json:"sales_messaging"`
}

// UpsertCompanySettings creates the profile row if absent, otherwise
// updates the existing one. There is at most one row.
func (s *Store) UpsertCompanySettings(ctx context.Context, params CompanySettingsParams) (*CompanySettings, error) {
	existing, found, err := s.GetCompanySettings(ctx)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	if found {
		row = s.db.QueryRow(ctx,
			`UPDATE company_settings
			 SET name = $2, description = NULLIF($3, ''), personality = NULLIF($4, ''),
			     sales_messaging = NULLIF($5, ''), updated_at = now()
			 WHERE id = $1
			 RETURNING `+settingsColumns,
			existing.ID, params.Name, params.Description, params.Personality, params.SalesMessaging)
	} else {
		row = s.db.QueryRow(ctx,
			`INSERT INTO company_settings (name, description, personality, sales_messaging)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
			 RETURNING `+settingsColumns,
			params.Name, params.Description, params.Personality, params.SalesMessaging)
	}

	var cs CompanySettings
	if err := row.Scan(&cs.ID, &cs.Name, &cs.Description, &cs.Personality,
		&cs.SalesMessaging, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
		return nil, fmt.Errorf("saving company settings: %w", err)
	}
	return &cs, nil
}

// DeleteCompanySettings removes the profile row if present.
func (s *Store) DeleteCompanySettings(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM company_settings`); err != nil {
		return fmt.Errorf("deleting company settings: %w", err)
	}
	return nil
}
