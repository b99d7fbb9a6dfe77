// Package lifecycle is the single source of truth for appointment status
// transitions. Every status change in the portal, whatever surface it comes
// from, is validated against the table in this package before the upstream
// service is contacted.
package lifecycle

import (
	"fmt"

	"go-appointment-portal/internal/domain/entity"
)

// Action is a user-facing workflow verb derived from the transition table.
// The UI renders exactly the action set this package reports as legal.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no_show"
)

// InvalidTransitionError identifies an illegal status change. Illegal
// transitions always fail loudly; they never silently no-op and never reach
// the network.
type InvalidTransitionError struct {
	Current   entity.AppointmentStatus
	Attempted entity.AppointmentStatus
	Actor     entity.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q for role %q", e.Current, e.Attempted, e.Actor)
}

// InitialStatus returns the status a freshly created appointment starts in.
// A patient-initiated appointment waits for the doctor (requested); a
// provider-initiated one waits for the patient (scheduled).
func InitialStatus(creator entity.Role) entity.AppointmentStatus {
	if creator == entity.RolePatient {
		return entity.AppointmentStatusRequested
	}
	return entity.AppointmentStatusScheduled
}

// rule is one row of the transition table. An empty creator matches any
// creator role.
type rule struct {
	current entity.AppointmentStatus
	creator entity.Role
	actor   entity.Role
	next    entity.AppointmentStatus
}

// The reciprocal-confirmation protocol: whichever party did not create the
// appointment must affirmatively accept it before it is binding. Cancellation
// by doctor or admin from any non-terminal status is handled separately as an
// administrative override (see AllowedNext).
var rules = []rule{
	{entity.AppointmentStatusRequested, entity.RolePatient, entity.RoleDoctor, entity.AppointmentStatusScheduled},
	{entity.AppointmentStatusRequested, entity.RolePatient, entity.RoleDoctor, entity.AppointmentStatusCancelled},
	{entity.AppointmentStatusScheduled, entity.RoleDoctor, entity.RolePatient, entity.AppointmentStatusConfirmed},
	{entity.AppointmentStatusScheduled, entity.RoleDoctor, entity.RolePatient, entity.AppointmentStatusCancelled},
	{entity.AppointmentStatusConfirmed, "", entity.RolePatient, entity.AppointmentStatusCancelled},
	{entity.AppointmentStatusConfirmed, "", entity.RoleDoctor, entity.AppointmentStatusInProgress},
	{entity.AppointmentStatusConfirmed, "", entity.RoleAdmin, entity.AppointmentStatusInProgress},
	{entity.AppointmentStatusInProgress, "", entity.RoleDoctor, entity.AppointmentStatusCompleted},
	{entity.AppointmentStatusInProgress, "", entity.RoleDoctor, entity.AppointmentStatusNoShow},
}

// AllowedNext returns every status the given actor may move the appointment
// to. Terminal statuses return nil regardless of actor.
func AllowedNext(current entity.AppointmentStatus, creator entity.Role, actor entity.Role) []entity.AppointmentStatus {
	if current.IsTerminal() {
		return nil
	}

	var next []entity.AppointmentStatus
	for _, r := range rules {
		if r.current != current || r.actor != actor {
			continue
		}
		if r.creator != "" && r.creator != creator {
			continue
		}
		next = append(next, r.next)
	}

	// Administrative override: doctors and admins may cancel any
	// non-terminal appointment.
	if actor == entity.RoleDoctor || actor == entity.RoleAdmin {
		if !contains(next, entity.AppointmentStatusCancelled) {
			next = append(next, entity.AppointmentStatusCancelled)
		}
	}

	return next
}

// CanTransition reports whether the actor may move the appointment from
// current to target.
func CanTransition(current entity.AppointmentStatus, creator entity.Role, actor entity.Role, target entity.AppointmentStatus) bool {
	return contains(AllowedNext(current, creator, actor), target)
}

// Validate returns an InvalidTransitionError unless the requested transition
// appears in the table for this actor.
func Validate(current entity.AppointmentStatus, creator entity.Role, actor entity.Role, target entity.AppointmentStatus) error {
	if CanTransition(current, creator, actor, target) {
		return nil
	}
	return &InvalidTransitionError{Current: current, Attempted: target, Actor: actor}
}

// AcceptTarget resolves the reciprocal affirmation for the current status:
// a doctor accepting a patient request schedules it, a patient accepting a
// doctor-scheduled appointment confirms it. The second return is false when
// the current status has no affirmative step.
func AcceptTarget(current entity.AppointmentStatus) (entity.AppointmentStatus, bool) {
	switch current {
	case entity.AppointmentStatusRequested:
		return entity.AppointmentStatusScheduled, true
	case entity.AppointmentStatusScheduled:
		return entity.AppointmentStatusConfirmed, true
	}
	return "", false
}

// AllowedActions maps the legal next statuses to the workflow verbs the UI
// exposes. A move to cancelled renders as "reject" while the appointment is
// still awaiting the non-creating party's affirmation, and as "cancel"
// everywhere else.
func AllowedActions(current entity.AppointmentStatus, creator entity.Role, actor entity.Role) []Action {
	var actions []Action
	for _, next := range AllowedNext(current, creator, actor) {
		switch next {
		case entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed:
			actions = append(actions, ActionAccept)
		case entity.AppointmentStatusInProgress:
			actions = append(actions, ActionStart)
		case entity.AppointmentStatusCompleted:
			actions = append(actions, ActionComplete)
		case entity.AppointmentStatusNoShow:
			actions = append(actions, ActionNoShow)
		case entity.AppointmentStatusCancelled:
			if isRejection(current, creator, actor) {
				actions = append(actions, ActionReject)
			} else {
				actions = append(actions, ActionCancel)
			}
		}
	}
	return actions
}

// isRejection holds while the appointment is unconfirmed and the actor is the
// party being asked to affirm it.
func isRejection(current entity.AppointmentStatus, creator entity.Role, actor entity.Role) bool {
	if current == entity.AppointmentStatusRequested {
		return creator == entity.RolePatient && actor == entity.RoleDoctor
	}
	if current == entity.AppointmentStatusScheduled {
		return creator == entity.RoleDoctor && actor == entity.RolePatient
	}
	return false
}

func contains(statuses []entity.AppointmentStatus, target entity.AppointmentStatus) bool {
	for _, s := range statuses {
		if s == target {
			return true
		}
	}
	return false
}
