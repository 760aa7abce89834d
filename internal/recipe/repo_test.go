package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipehub/internal/diet"
	"recipehub/internal/testhelpers"
	"recipehub/pkg/apperr"
	"recipehub/pkg/models"
)

func newRepos(t *testing.T) (*Repo, *diet.Repo) {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	return NewRepo(db), diet.NewRepo(db)
}

func TestRepo_CreateAndGet(t *testing.T) {
	repo, _ := newRepos(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.NewRecipe{
		Name:        "  Soup ",
		Resume:      "Warm.",
		Score:       70,
		HealthScore: 88,
		Steps:       [][]string{{"Boil water.", "Add vegetables."}},
		Image:       "",
	})
	require.NoError(t, err)

	assert.Positive(t, created.ID)
	assert.Equal(t, "Soup", created.Name)
	assert.Equal(t, [][]string{{"Boil water.", "Add vegetables."}}, created.Steps)
	assert.Equal(t, models.SourceLocal, created.Source)
	assert.True(t, created.CreatedInDB)
	assert.Empty(t, created.Diets)
	assert.NotNil(t, created.CreatedAt)

	missing, err := repo.GetByID(ctx, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepo_AddDiet(t *testing.T) {
	repo, diets := newRepos(t)
	ctx := context.Background()

	_, err := diets.CreateIfAbsent(ctx, "vegetarian")
	require.NoError(t, err)
	r, err := repo.Create(ctx, models.NewRecipe{Name: "Salad"})
	require.NoError(t, err)

	require.NoError(t, repo.AddDiet(ctx, r.ID, "vegetarian"))
	// linking twice is harmless
	require.NoError(t, repo.AddDiet(ctx, r.ID, "vegetarian"))

	err = repo.AddDiet(ctx, r.ID, "madeup")
	assert.ErrorIs(t, err, apperr.ErrUnknownDiet)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegetarian"}, got.Diets)
}

func TestRepo_ListLocal(t *testing.T) {
	repo, diets := newRepos(t)
	ctx := context.Background()

	empty, err := repo.ListLocal(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, n := range []string{"vegan", "ketogenic"} {
		_, err := diets.CreateIfAbsent(ctx, n)
		require.NoError(t, err)
	}
	a, err := repo.Create(ctx, models.NewRecipe{Name: "Bowl"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, models.NewRecipe{Name: "Apple Pie"})
	require.NoError(t, err)
	require.NoError(t, repo.AddDiet(ctx, a.ID, "vegan"))
	require.NoError(t, repo.AddDiet(ctx, a.ID, "ketogenic"))

	got, err := repo.ListLocal(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, []string{"ketogenic", "vegan"}, got[0].Diets)
	assert.Equal(t, b.ID, got[1].ID)
	assert.Equal(t, []string{}, got[1].Diets)
}

func TestRepo_StoreFailuresAreClassified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepo(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, name, resume").WillReturnError(errors.New("disk I/O error"))
	_, err = repo.ListLocal(ctx)
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)

	mock.ExpectExec("INSERT INTO recipes").WillReturnError(errors.New("database is locked"))
	_, err = repo.Create(ctx, models.NewRecipe{Name: "Soup"})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)

	mock.ExpectQuery("SELECT id FROM diets").
		WithArgs("vegan").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec("INSERT INTO recipe_diets").
		WithArgs(int64(9), int64(4)).
		WillReturnError(errors.New("FOREIGN KEY constraint failed"))
	err = repo.AddDiet(ctx, 9, "vegan")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
