package model

// SystemActorID is recorded for transitions made by the service itself,
// such as due-date expiry.
const SystemActorID = "system"

// Actor is whoever requests a status change
type Actor struct {
	ID     string
	Name   string
	System bool
}

// SystemActor returns the actor used for time-triggered transitions
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Name: "Themis", System: true}
}

// UserActor returns an actor for a human user
func UserActor(id, name string) Actor {
	return Actor{ID: id, Name: name}
}
