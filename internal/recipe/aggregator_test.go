package recipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipehub/internal/catalog"
	"recipehub/internal/diet"
	"recipehub/internal/testhelpers"
	"recipehub/pkg/apperr"
	"recipehub/pkg/models"
)

type fakeCatalog struct {
	records []catalog.Record
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeCatalog) FetchBatch(ctx context.Context, pageSize int) ([]catalog.Record, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeStore struct {
	mu      sync.Mutex
	local   []models.Recipe
	listErr error
	nextID  int64
	known   map[string]bool
	links   map[int64][]string
}

func (f *fakeStore) ListLocal(context.Context) ([]models.Recipe, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.local, nil
}

func (f *fakeStore) Create(_ context.Context, in models.NewRecipe) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := models.Recipe{ID: f.nextID, Name: in.Name, Source: models.SourceLocal, CreatedInDB: true, Diets: []string{}}
	f.local = append(f.local, r)
	return &r, nil
}

func (f *fakeStore) AddDiet(_ context.Context, recipeID int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.known[name] {
		return apperr.UnknownDiet(name)
	}
	if f.links == nil {
		f.links = make(map[int64][]string)
	}
	f.links[recipeID] = append(f.links[recipeID], name)
	return nil
}

func names(rs []models.Recipe) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestListAll_RemoteThenLocal(t *testing.T) {
	cat := &fakeCatalog{records: []catalog.Record{{ID: 1, Title: "Remote A"}, {ID: 2, Title: "Remote B"}}}
	store := &fakeStore{local: []models.Recipe{{ID: 1, Name: "Local A", Source: models.SourceLocal}}}
	agg := NewAggregator(cat, store, nil, nil)

	got, err := agg.ListAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Remote A", "Remote B", "Local A"}, names(got))
	assert.Equal(t, models.SourceCatalog, got[0].Source)
	assert.Equal(t, models.SourceLocal, got[2].Source)
}

func TestListAll_FailsWhenEitherSideFails(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		agg := NewAggregator(&fakeCatalog{err: errors.New("connection refused")}, &fakeStore{}, nil, nil)
		_, err := agg.ListAll(context.Background())
		assert.ErrorIs(t, err, apperr.ErrCatalogUnavailable)
	})

	t.Run("store", func(t *testing.T) {
		agg := NewAggregator(&fakeCatalog{}, &fakeStore{listErr: errors.New("disk I/O error")}, nil, nil)
		_, err := agg.ListAll(context.Background())
		assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	})

	t.Run("catalog timeout", func(t *testing.T) {
		agg := NewAggregator(&fakeCatalog{delay: time.Second}, &fakeStore{}, nil, nil)
		agg.CatalogTimeout = 20 * time.Millisecond

		start := time.Now()
		_, err := agg.ListAll(context.Background())
		assert.ErrorIs(t, err, apperr.ErrCatalogUnavailable)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestListSortedByName_Stable(t *testing.T) {
	store := &fakeStore{local: []models.Recipe{
		{ID: 1, Name: "Taco", Resume: "first"},
		{ID: 2, Name: "apple"},
		{ID: 3, Name: "taco", Resume: "second"},
	}}
	agg := NewAggregator(&fakeCatalog{}, store, nil, nil)

	got, err := agg.ListSortedByName(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "apple", got[0].Name)
	assert.Equal(t, "first", got[1].Resume)
	assert.Equal(t, "second", got[2].Resume)
}

func TestFindByName(t *testing.T) {
	cat := &fakeCatalog{records: []catalog.Record{
		{ID: 10, Title: "Chocolate Cake"},
		{ID: 11, Title: "Lentil Soup"},
	}}
	store := &fakeStore{local: []models.Recipe{{ID: 1, Name: "Hot Chocolate"}}}
	agg := NewAggregator(cat, store, nil, nil)
	ctx := context.Background()

	got, err := agg.FindByName(ctx, "choco")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chocolate Cake", "Hot Chocolate"}, names(got))

	got, err = agg.FindByName(ctx, "SOUP")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lentil Soup"}, names(got))

	_, err = agg.FindByName(ctx, "zzz")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindByID(t *testing.T) {
	cat := &fakeCatalog{records: []catalog.Record{{ID: 7, Title: "Remote Seven"}, {ID: 8, Title: "Remote Eight"}}}
	store := &fakeStore{local: []models.Recipe{{ID: 7, Name: "Local Seven"}, {ID: 3, Name: "Local Three"}}}
	agg := NewAggregator(cat, store, nil, nil)
	ctx := context.Background()

	got, err := agg.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Local Three"}, names(got))

	// colliding ids surface both recipes
	got, err = agg.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Remote Seven", "Local Seven"}, names(got))

	_, err = agg.FindByID(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindByID_LocalOnlyMatch(t *testing.T) {
	agg := NewAggregator(&fakeCatalog{records: []catalog.Record{{ID: 1, Title: "Remote"}}},
		&fakeStore{local: []models.Recipe{{ID: 7, Name: "Local"}}}, nil, nil)

	got, err := agg.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) BroadcastJSON(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, v)
}

func TestCreateRecipeWithDiets_PartialFailure(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	recipes := NewRepo(db)
	diets := diet.NewRepo(db)
	ctx := context.Background()

	_, err := diets.CreateIfAbsent(ctx, "vegetarian")
	require.NoError(t, err)

	pub := &recordingPublisher{}
	agg := NewAggregator(&fakeCatalog{}, recipes, diet.NewReconciler(diets, nil), nil)
	agg.Events = pub

	res, err := agg.CreateRecipeWithDiets(ctx, models.NewRecipe{Name: "Soup"}, []string{"vegetarian", "madeup"})
	assert.ErrorIs(t, err, apperr.ErrUnknownDiet)
	require.NotNil(t, res)
	assert.True(t, res.Failed())

	require.Len(t, res.Diets, 2)
	assert.Equal(t, "vegetarian", res.Diets[0].Name)
	assert.NoError(t, res.Diets[0].Err)
	assert.Equal(t, "madeup", res.Diets[1].Name)
	assert.ErrorIs(t, res.Diets[1].Err, apperr.ErrUnknownDiet)
	assert.Equal(t, []string{"vegetarian"}, res.Recipe.Diets)

	// neither the recipe nor the vegetarian link were undone
	stored, err := recipes.GetByID(ctx, res.Recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Soup", stored.Name)
	assert.Equal(t, []string{"vegetarian"}, stored.Diets)

	assert.Len(t, pub.events, 1)
}

func TestCreateRecipeWithDiets_Validation(t *testing.T) {
	store := &fakeStore{}
	agg := NewAggregator(&fakeCatalog{}, store, nil, nil)

	res, err := agg.CreateRecipeWithDiets(context.Background(), models.NewRecipe{Name: "   "}, []string{"vegan"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
	assert.Empty(t, store.local)
}

func TestCreateRecipeWithDiets_DedupesNames(t *testing.T) {
	store := &fakeStore{known: map[string]bool{"vegan": true}}
	agg := NewAggregator(&fakeCatalog{}, store, nil, nil)

	res, err := agg.CreateRecipeWithDiets(context.Background(), models.NewRecipe{Name: "Bowl"}, []string{"vegan", " vegan", ""})
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Len(t, res.Diets, 1)
	assert.Equal(t, []string{"vegan"}, store.links[res.Recipe.ID])
}

func TestDeriveAndReconcileTaxonomy(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	diets := diet.NewRepo(db)
	cat := &fakeCatalog{records: []catalog.Record{
		{ID: 1, Diets: []string{"vegan", "gluten free"}},
		{ID: 2, Diets: []string{"vegan", "paleolithic"}},
	}}
	agg := NewAggregator(cat, NewRepo(db), diet.NewReconciler(diets, nil), nil)
	ctx := context.Background()

	labels, err := agg.DeriveAndReconcileTaxonomy(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"gluten free", "ketogenic", "paleolithic", "vegan", "vegetarian"}, labels)
	assert.Equal(t, int32(1), cat.calls.Load())

	// second run adds no rows
	_, err = agg.DeriveAndReconcileTaxonomy(ctx)
	require.NoError(t, err)
	rows, err := diets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestSnapshot_SingleFetchFeedsBothViews(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	cat := &fakeCatalog{records: []catalog.Record{{ID: 1, Title: "Pho", Diets: []string{"dairy free"}}}}
	agg := NewAggregator(cat, NewRepo(db), diet.NewReconciler(diet.NewRepo(db), nil), nil)
	ctx := context.Background()

	snap, err := agg.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Pho"}, names(snap.Recipes()))
	labels, err := agg.ReconcileSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.Contains(t, labels, "dairy free")
	assert.Equal(t, int32(1), cat.calls.Load())
}

func TestDeriveAndReconcileTaxonomy_CatalogDown(t *testing.T) {
	agg := NewAggregator(&fakeCatalog{err: errors.New("503")}, &fakeStore{}, nil, nil)

	_, err := agg.DeriveAndReconcileTaxonomy(context.Background())
	assert.ErrorIs(t, err, apperr.ErrCatalogUnavailable)
}

func TestDeriveAndReconcileTaxonomy_WhitespaceLabels(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	diets := diet.NewRepo(db)
	cat := &fakeCatalog{records: []catalog.Record{{ID: 1, Diets: []string{"vegan", "vegan ", " "}}}}
	agg := NewAggregator(cat, NewRepo(db), diet.NewReconciler(diets, nil), nil)

	labels, err := agg.DeriveAndReconcileTaxonomy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ketogenic", "vegan", "vegetarian"}, labels)

	rows, err := diets.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, len(labels))
}
