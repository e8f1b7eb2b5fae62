package service

import (
	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID        string
	Name      string
	Email     string
	SocietyID string
	Roles     workflow.RoleSet
}

// ActorFromUser captures the identity, society and roles of a resolved user.
func ActorFromUser(user models.User) Actor {
	actor := Actor{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Roles: user.RoleSet(),
	}
	if user.HasSociety() {
		actor.SocietyID = *user.SocietyID
	}
	return actor
}

// HasSociety reports whether the actor belongs to a society.
func (a Actor) HasSociety() bool {
	return a.SocietyID != ""
}
