package models

import "time"

const (
	SourceCatalog = "catalog"
	SourceLocal   = "local"
)

// Recipe is the canonical form of a recipe, whichever side it came from.
//
// Catalog recipes are produced by the normalizer from a raw catalog record;
// local recipes are read back from the store. IDs of the two sides live in
// separate spaces and may collide; Source tells them apart.
type Recipe struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Resume      string     `json:"resume"`
	Score       int        `json:"score"`
	HealthScore int        `json:"health_score"`
	Steps       [][]string `json:"steps"`
	Image       string     `json:"img,omitempty"`
	Diets       []string   `json:"diets"`
	Source      string     `json:"source"`
	CreatedInDB bool       `json:"created_in_db"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// NewRecipe holds the caller-supplied fields of a local recipe.
type NewRecipe struct {
	Name        string     `json:"name"`
	Resume      string     `json:"resume"`
	Score       int        `json:"score"`
	HealthScore int        `json:"health_score"`
	Steps       [][]string `json:"steps"`
	Image       string     `json:"img"`
}
