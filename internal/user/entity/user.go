package entity

import "time"

// Profile is one registered identity. SubjectID and Email come from the
// verified identity token and never change after creation.
type Profile struct {
	SubjectID string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Group     string    `json:"group"`
	CreatedAt time.Time `json:"-"`
}
