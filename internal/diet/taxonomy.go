package diet

import (
	"context"
	"sort"
	"strings"

	"recipehub/internal/catalog"
	"recipehub/pkg/logger"
	"recipehub/pkg/models"
)

// Seed lists labels the catalog never reports but users may create recipes
// with. They are always part of the derived taxonomy.
var Seed = []string{"vegetarian", "ketogenic"}

// DeriveLabels collects every diet label seen in records, on top of Seed,
// without duplicates. Labels are trimmed the same way the store trims names. Order is first-seen; callers that serialize the result
// should sort it first.
func DeriveLabels(records []catalog.Record) []string {
	seen := make(map[string]struct{}, len(Seed))
	out := make([]string, 0, len(Seed))

	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}

	for _, s := range Seed {
		add(s)
	}
	for _, r := range records {
		for _, d := range r.Diets {
			add(d)
		}
	}
	return out
}

// Sorted returns a sorted copy of labels.
func Sorted(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.Strings(out)
	return out
}

// Store is the persistence side of the taxonomy. CreateIfAbsent must be
// atomic with respect to concurrent callers.
type Store interface {
	CreateIfAbsent(ctx context.Context, name string) (*models.DietLabel, error)
}

type Reconciler struct {
	Store Store
	Log   logger.Logger
}

func NewReconciler(store Store, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{Store: store, Log: log.With(logger.Component("taxonomy"))}
}

// Reconcile makes sure a taxonomy row exists for every label. It returns the
// label set it was given (deduplicated), not the persisted rows. The first
// store failure aborts the run; rows created before it stay.
func (r *Reconciler) Reconcile(ctx context.Context, labels []string) ([]string, error) {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))

	for _, name := range labels {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		d, err := r.Store.CreateIfAbsent(ctx, name)
		if err != nil {
			r.Log.Error("reconcile diet failed", logger.String("diet", name), logger.Error(err))
			return nil, err
		}
		r.Log.Debug("diet reconciled", logger.String("diet", d.Name), logger.Int64("id", d.ID))
		out = append(out, name)
	}

	r.Log.Info("taxonomy reconciled", logger.Int("labels", len(out)))
	return out, nil
}
