package catalog

// Record is one recipe as the remote catalog serves it from
// /recipes/complexSearch with addRecipeInformation=true. Only the fields
// the normalizer and the taxonomy need are decoded.
type Record struct {
	ID                   int64              `json:"id"`
	Title                string             `json:"title"`
	Summary              string             `json:"summary"`
	SpoonacularScore     float64            `json:"spoonacularScore"`
	HealthScore          float64            `json:"healthScore"`
	AnalyzedInstructions []InstructionGroup `json:"analyzedInstructions"`
	Image                string             `json:"image"`
	Diets                []string           `json:"diets"`
}

type InstructionGroup struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

type Step struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// SearchResponse is the complexSearch envelope.
type SearchResponse struct {
	Results      []Record `json:"results"`
	Offset       int      `json:"offset"`
	Number       int      `json:"number"`
	TotalResults int      `json:"totalResults"`
}
