package management

import (
	"time"

	pkgerrors "mgmtapi/pkg/errors"
)

// GroupEvent is a lifecycle event a group can react to.
type GroupEvent string

const (
	GroupEventApiCreate         GroupEvent = "API_CREATE"
	GroupEventApplicationCreate GroupEvent = "APPLICATION_CREATE"
)

// ParseGroupEvent decodes a stored event token, rejecting unknown values.
func ParseGroupEvent(s string) (GroupEvent, error) {
	switch GroupEvent(s) {
	case GroupEventApiCreate, GroupEventApplicationCreate:
		return GroupEvent(s), nil
	}
	return "", pkgerrors.NewValidationError("unknown group event '" + s + "'")
}

// GroupEventRule associates a group with an event it subscribes to.
type GroupEventRule struct {
	Event GroupEvent
}

// Group is a named set of users sharing roles on APIs and applications.
// Administrators is never nil on a fully constructed group; an absent
// list normalizes to empty.
type Group struct {
	ID             string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	EventRules     []GroupEventRule
	Administrators []string
}
