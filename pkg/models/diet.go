package models

// DietLabel is one persisted taxonomy entry. Name is unique.
type DietLabel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
