package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipehub/pkg/apperr"
	"recipehub/pkg/models"
)

// Repo is the local store of user-created recipes.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const selectRecipe = `
	SELECT id, name, resume, score, health_score, steps, image, created_at
	FROM recipes
`

// ListLocal returns every local recipe in creation order with its diet
// labels resolved through recipe_diets.
func (r *Repo) ListLocal(ctx context.Context) ([]models.Recipe, error) {
	rows, err := r.DB.QueryContext(ctx, selectRecipe+` ORDER BY id ASC`)
	if err != nil {
		return nil, apperr.StoreUnavailable("list recipes", fmt.Errorf("list recipes: %w", err))
	}
	defer rows.Close()

	out := make([]models.Recipe, 0)
	index := make(map[int64]int)
	for rows.Next() {
		m, err := scanRecipe(rows)
		if err != nil {
			return nil, apperr.StoreUnavailable("list recipes", err)
		}
		index[m.ID] = len(out)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StoreUnavailable("list recipes", fmt.Errorf("rows err: %w", err))
	}

	if len(out) == 0 {
		return out, nil
	}

	dietRows, err := r.DB.QueryContext(ctx, `
		SELECT rd.recipe_id, d.name
		FROM recipe_diets rd
		JOIN diets d ON d.id = rd.diet_id
		ORDER BY rd.recipe_id, d.name
	`)
	if err != nil {
		return nil, apperr.StoreUnavailable("list recipes", fmt.Errorf("list recipe diets: %w", err))
	}
	defer dietRows.Close()

	for dietRows.Next() {
		var (
			recipeID int64
			name     string
		)
		if err := dietRows.Scan(&recipeID, &name); err != nil {
			return nil, apperr.StoreUnavailable("list recipes", fmt.Errorf("scan recipe diet: %w", err))
		}
		if i, ok := index[recipeID]; ok {
			out[i].Diets = append(out[i].Diets, name)
		}
	}
	if err := dietRows.Err(); err != nil {
		return nil, apperr.StoreUnavailable("list recipes", fmt.Errorf("rows err: %w", err))
	}
	return out, nil
}

// GetByID returns nil, nil when the recipe does not exist.
func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	row := r.DB.QueryRowContext(ctx, selectRecipe+` WHERE id = ?`, id)
	m, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.StoreUnavailable("get recipe", err)
	}

	diets, err := r.dietsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Diets = diets
	return &m, nil
}

// Create inserts the recipe row only; diets are attached with AddDiet.
func (r *Repo) Create(ctx context.Context, in models.NewRecipe) (*models.Recipe, error) {
	steps := in.Steps
	if steps == nil {
		steps = [][]string{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, apperr.Invalid("encode steps: %v", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO recipes (name, resume, score, health_score, steps, image)
		VALUES (?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(in.Name), in.Resume, in.Score, in.HealthScore, string(stepsJSON), nullString(in.Image))
	if err != nil {
		return nil, apperr.StoreUnavailable("create recipe", fmt.Errorf("insert recipe: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.StoreUnavailable("create recipe", fmt.Errorf("last insert id: %w", err))
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperr.StoreUnavailable("create recipe", fmt.Errorf("recipe %d missing after insert", id))
	}
	return created, nil
}

// AddDiet links a recipe to an existing diet row. The diet must have been
// reconciled beforehand; otherwise the call fails with UnknownDiet. Linking
// twice is a no-op.
func (r *Repo) AddDiet(ctx context.Context, recipeID int64, dietName string) error {
	var dietID int64
	err := r.DB.QueryRowContext(ctx, `SELECT id FROM diets WHERE name = ?`, dietName).Scan(&dietID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.UnknownDiet(dietName)
	}
	if err != nil {
		return apperr.StoreUnavailable("add diet", fmt.Errorf("lookup diet %q: %w", dietName, err))
	}

	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO recipe_diets (recipe_id, diet_id)
		VALUES (?, ?)
		ON CONFLICT(recipe_id, diet_id) DO NOTHING
	`, recipeID, dietID); err != nil {
		return apperr.StoreUnavailable("add diet", fmt.Errorf("link recipe %d to %q: %w", recipeID, dietName, err))
	}
	return nil
}

func (r *Repo) dietsOf(ctx context.Context, recipeID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.name
		FROM recipe_diets rd
		JOIN diets d ON d.id = rd.diet_id
		WHERE rd.recipe_id = ?
		ORDER BY d.name
	`, recipeID)
	if err != nil {
		return nil, apperr.StoreUnavailable("get recipe", fmt.Errorf("list diets of %d: %w", recipeID, err))
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperr.StoreUnavailable("get recipe", fmt.Errorf("scan diet: %w", err))
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.StoreUnavailable("get recipe", fmt.Errorf("rows err: %w", err))
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (models.Recipe, error) {
	var (
		m         models.Recipe
		resume    sql.NullString
		score     sql.NullInt64
		health    sql.NullInt64
		stepsJSON sql.NullString
		image     sql.NullString
		createdAt sql.NullTime
	)
	if err := s.Scan(&m.ID, &m.Name, &resume, &score, &health, &stepsJSON, &image, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scan recipe: %w", err)
	}

	m.Resume = resume.String
	m.Score = int(score.Int64)
	m.HealthScore = int(health.Int64)
	m.Image = image.String
	m.Source = models.SourceLocal
	m.CreatedInDB = true
	m.Diets = []string{}
	m.Steps = [][]string{}
	if createdAt.Valid {
		t := createdAt.Time
		m.CreatedAt = &t
	}
	if stepsJSON.Valid && stepsJSON.String != "" {
		if err := json.Unmarshal([]byte(stepsJSON.String), &m.Steps); err != nil {
			return m, fmt.Errorf("decode steps of recipe %d: %w", m.ID, err)
		}
	}
	return m, nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
