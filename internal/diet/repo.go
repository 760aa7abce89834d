package diet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"recipehub/pkg/apperr"
	"recipehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// CreateIfAbsent returns the diet row named name, inserting it first when it
// does not exist. The unique index on diets.name makes the insert atomic, so
// overlapping callers (in this process or another one sharing the file)
// never produce two rows for one name.
func (r *Repo) CreateIfAbsent(ctx context.Context, name string) (*models.DietLabel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("diet name required")
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO diets (name)
		VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name); err != nil {
		return nil, apperr.StoreUnavailable("insert diet", fmt.Errorf("insert diet %q: %w", name, err))
	}

	d, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if d == nil {
		// only reachable if someone deleted the row in between
		return nil, apperr.StoreUnavailable("insert diet", fmt.Errorf("diet %q vanished after insert", name))
	}
	return d, nil
}

// GetByName returns nil, nil when no such diet exists.
func (r *Repo) GetByName(ctx context.Context, name string) (*models.DietLabel, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name
		FROM diets
		WHERE name = ?
	`, strings.TrimSpace(name))

	var d models.DietLabel
	if err := row.Scan(&d.ID, &d.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.StoreUnavailable("get diet", fmt.Errorf("scan diet: %w", err))
	}
	return &d, nil
}

func (r *Repo) List(ctx context.Context) ([]models.DietLabel, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name
		FROM diets
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, apperr.StoreUnavailable("list diets", fmt.Errorf("list diets: %w", err))
	}
	defer rows.Close()

	out := make([]models.DietLabel, 0)
	for rows.Next() {
		var d models.DietLabel
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, apperr.StoreUnavailable("list diets", fmt.Errorf("scan diet row: %w", err))
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StoreUnavailable("list diets", fmt.Errorf("rows err: %w", err))
	}
	return out, nil
}
