package model

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
