package recipe

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"recipehub/internal/catalog"
	"recipehub/internal/diet"
	synchub "recipehub/internal/sync"
	"recipehub/pkg/apperr"
	"recipehub/pkg/logger"
	"recipehub/pkg/models"
)

const (
	DefaultPageSize       = 100
	DefaultCatalogTimeout = 10 * time.Second
)

// LocalStore is the slice of the recipe repo the aggregator uses.
type LocalStore interface {
	ListLocal(ctx context.Context) ([]models.Recipe, error)
	Create(ctx context.Context, in models.NewRecipe) (*models.Recipe, error)
	AddDiet(ctx context.Context, recipeID int64, dietName string) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, labels []string) ([]string, error)
}

// Publisher receives change events. The sync hub implements it.
type Publisher interface {
	BroadcastJSON(v any)
}

// Aggregator unions the remote catalog with the local store and answers
// queries over the result.
type Aggregator struct {
	Catalog        catalog.Fetcher
	Store          LocalStore
	Taxonomy       Reconciler
	Events         Publisher
	PageSize       int
	CatalogTimeout time.Duration
	Log            logger.Logger
}

func NewAggregator(c catalog.Fetcher, store LocalStore, taxonomy Reconciler, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		Catalog:        c,
		Store:          store,
		Taxonomy:       taxonomy,
		PageSize:       DefaultPageSize,
		CatalogTimeout: DefaultCatalogTimeout,
		Log:            log.With(logger.Component("aggregator")),
	}
}

// Snapshot is the data of one logical request: a single catalog batch and
// the local recipes read alongside it. Both the recipe views and the
// taxonomy derive from the same batch so the catalog is hit once.
type Snapshot struct {
	Records []catalog.Record
	Local   []models.Recipe
}

// Recipes returns remote recipes first, then local ones in store order.
// Identifier collisions between the two sides are kept.
func (s *Snapshot) Recipes() []models.Recipe {
	out := make([]models.Recipe, 0, len(s.Records)+len(s.Local))
	out = append(out, NormalizeAll(s.Records)...)
	out = append(out, s.Local...)
	return out
}

func (s *Snapshot) Labels() []string {
	return diet.DeriveLabels(s.Records)
}

// Load fetches the catalog batch and the local recipes concurrently. If
// either side fails the whole load fails; there is no local-only fallback.
func (a *Aggregator) Load(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := a.fetchCatalog(gctx)
		if err != nil {
			return err
		}
		snap.Records = records
		return nil
	})

	g.Go(func() error {
		local, err := a.Store.ListLocal(gctx)
		if err != nil {
			return apperr.StoreUnavailable("list local recipes", err)
		}
		snap.Local = local
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Log.Warn("load failed", logger.Error(err))
		return nil, err
	}
	return &snap, nil
}

func (a *Aggregator) fetchCatalog(ctx context.Context) ([]catalog.Record, error) {
	timeout := a.CatalogTimeout
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	pageSize := a.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := a.Catalog.FetchBatch(cctx, pageSize)
	if err != nil {
		if _, classified := apperr.CodeOf(err); classified {
			return nil, err
		}
		return nil, apperr.CatalogUnavailable(err)
	}
	return records, nil
}

func (a *Aggregator) ListAll(ctx context.Context) ([]models.Recipe, error) {
	snap, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Recipes(), nil
}

func (a *Aggregator) ListSortedByName(ctx context.Context) ([]models.Recipe, error) {
	all, err := a.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	SortByName(all)
	return all, nil
}

// SortByName sorts in place by case-insensitive name, keeping the input
// order of equal names.
func SortByName(recipes []models.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		return strings.ToUpper(recipes[i].Name) < strings.ToUpper(recipes[j].Name)
	})
}

// FindByName returns every recipe whose name contains query, ignoring case,
// in ListAll order.
func (a *Aggregator) FindByName(ctx context.Context, query string) ([]models.Recipe, error) {
	all, err := a.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matches := FilterByName(all, query)
	if len(matches) == 0 {
		return nil, apperr.NotFound("no recipe matches %q", query)
	}
	return matches, nil
}

func FilterByName(recipes []models.Recipe, query string) []models.Recipe {
	q := strings.ToLower(query)
	out := make([]models.Recipe, 0)
	for _, r := range recipes {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// FindByID returns every recipe carrying id. Catalog and local ids may
// collide, so more than one result is possible.
func (a *Aggregator) FindByID(ctx context.Context, id int64) ([]models.Recipe, error) {
	all, err := a.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Recipe, 0, 1)
	for _, r := range all {
		if r.ID == id {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("no recipe with id %d", id)
	}
	if len(out) > 1 {
		a.Log.Debug("recipe id shared across sources", logger.Int64("id", id), logger.Int("matches", len(out)))
	}
	return out, nil
}

// DietResult is the outcome of linking one diet to a new recipe.
type DietResult struct {
	Name string
	Err  error
}

// CreateResult shows what a create actually persisted: the recipe (with
// the diets that were linked) and one entry per requested diet.
type CreateResult struct {
	Recipe *models.Recipe
	Diets  []DietResult
}

// Failed reports whether any diet could not be linked.
func (r *CreateResult) Failed() bool {
	for _, d := range r.Diets {
		if d.Err != nil {
			return true
		}
	}
	return false
}

// CreateRecipeWithDiets stores a local recipe and links each requested diet
// independently. A diet that fails does not undo the recipe or the diets
// linked before it; the returned result carries the partial state and the
// returned error joins every per-diet failure.
func (a *Aggregator) CreateRecipeWithDiets(ctx context.Context, in models.NewRecipe, dietNames []string) (*CreateResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Invalid("recipe name required")
	}

	created, err := a.Store.Create(ctx, in)
	if err != nil {
		return nil, apperr.StoreUnavailable("create recipe", err)
	}

	res := &CreateResult{Recipe: created}
	var errs []error
	seen := make(map[string]struct{}, len(dietNames))
	linked := make([]string, 0, len(dietNames))

	for _, name := range dietNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		err := a.Store.AddDiet(ctx, created.ID, name)
		res.Diets = append(res.Diets, DietResult{Name: name, Err: err})
		if err != nil {
			a.Log.Warn("link diet failed",
				logger.Int64("recipe_id", created.ID),
				logger.String("diet", name),
				logger.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		linked = append(linked, name)
	}

	created.Diets = diet.Sorted(linked)
	a.Log.Info("recipe created",
		logger.Int64("recipe_id", created.ID),
		logger.String("name", created.Name),
		logger.Strings("diets", created.Diets),
	)
	a.publish(synchub.NewRecipeEvent(*created))

	return res, errors.Join(errs...)
}

// DeriveAndReconcileTaxonomy fetches one catalog batch, derives the diet
// labels and makes sure each exists in the store. The result is sorted.
func (a *Aggregator) DeriveAndReconcileTaxonomy(ctx context.Context) ([]string, error) {
	records, err := a.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return a.ReconcileSnapshot(ctx, &Snapshot{Records: records})
}

// ReconcileSnapshot reconciles the labels of an already fetched batch.
func (a *Aggregator) ReconcileSnapshot(ctx context.Context, snap *Snapshot) ([]string, error) {
	labels, err := a.Taxonomy.Reconcile(ctx, snap.Labels())
	if err != nil {
		return nil, apperr.StoreUnavailable("reconcile taxonomy", err)
	}
	labels = diet.Sorted(labels)
	a.publish(synchub.NewTaxonomyEvent(labels))
	return labels, nil
}

func (a *Aggregator) publish(v any) {
	if a.Events != nil {
		a.Events.BroadcastJSON(v)
	}
}
