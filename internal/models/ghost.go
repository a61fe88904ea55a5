// internal/models/ghost.go
package models

import "time"

// Ghost is one entry in the ghost-type catalog. Symptom lists are grouped by
// evidence tier.
type Ghost struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TypeASymptoms []string  `json:"type_a_symptoms"`
	TypeBSymptoms []string  `json:"type_b_symptoms"`
	TypeCSymptoms []string  `json:"type_c_symptoms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
