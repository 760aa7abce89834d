package sync

import (
	"time"

	"recipehub/pkg/models"
)

const (
	EventRecipeCreated      = "recipe.created"
	EventTaxonomyReconciled = "taxonomy.reconciled"
)

type RecipeEvent struct {
	Type     string    `json:"type"`
	RecipeID int64     `json:"recipe_id"`
	Name     string    `json:"name"`
	Diets    []string  `json:"diets"`
	At       time.Time `json:"at"`
}

type TaxonomyEvent struct {
	Type   string    `json:"type"`
	Labels []string  `json:"labels"`
	At     time.Time `json:"at"`
}

func NewRecipeEvent(r models.Recipe) RecipeEvent {
	return RecipeEvent{
		Type:     EventRecipeCreated,
		RecipeID: r.ID,
		Name:     r.Name,
		Diets:    r.Diets,
		At:       time.Now().UTC(),
	}
}

func NewTaxonomyEvent(labels []string) TaxonomyEvent {
	return TaxonomyEvent{
		Type:   EventTaxonomyReconciled,
		Labels: labels,
		At:     time.Now().UTC(),
	}
}
