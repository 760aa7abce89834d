package recipe

import (
	"math"

	"recipehub/internal/catalog"
	"recipehub/pkg/models"
)

// Normalize maps a raw catalog record into the canonical Recipe. It has no
// failure path: a record that decoded is a record we can map.
//
// Scores are rounded half up. Instruction groups become one []string each,
// keeping group and step order. Diet labels are copied as-is; deduplication
// is the taxonomy's job.
func Normalize(r catalog.Record) models.Recipe {
	steps := make([][]string, 0, len(r.AnalyzedInstructions))
	for _, g := range r.AnalyzedInstructions {
		group := make([]string, 0, len(g.Steps))
		for _, s := range g.Steps {
			group = append(group, s.Step)
		}
		steps = append(steps, group)
	}

	diets := make([]string, len(r.Diets))
	copy(diets, r.Diets)

	return models.Recipe{
		ID:          r.ID,
		Name:        r.Title,
		Resume:      r.Summary,
		Score:       roundHalfUp(r.SpoonacularScore),
		HealthScore: roundHalfUp(r.HealthScore),
		Steps:       steps,
		Image:       r.Image,
		Diets:       diets,
		Source:      models.SourceCatalog,
	}
}

// NormalizeAll keeps the input order.
func NormalizeAll(records []catalog.Record) []models.Recipe {
	out := make([]models.Recipe, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
