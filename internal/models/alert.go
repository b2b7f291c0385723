package models

// Alert is an element whose status is not normal.
type Alert struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Color  string `json:"color"`
}
