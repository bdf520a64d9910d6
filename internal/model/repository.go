package model

// Repository is a GitHub repository visible to one of the App's installations.
type Repository struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}
