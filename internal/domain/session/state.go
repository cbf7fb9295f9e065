package session

import (
	"github.com/example/ec-storefront/internal/domain/user"
)

type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
)

type ActionType string

const (
	ActionAuthStart   ActionType = "AUTH_START"
	ActionAuthSuccess ActionType = "AUTH_SUCCESS"
	ActionAuthFailure ActionType = "AUTH_FAILURE"
	ActionLogout      ActionType = "LOGOUT"
)

type Action struct {
	Type ActionType
	User *user.User // AUTH_SUCCESS
	Err  error      // AUTH_FAILURE
}

// State is the session as the view layer sees it. User is set only when authenticated.
type State struct {
	Status Status
	User   *user.User
	Err    error
}

// Reduce is the session state machine.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionAuthStart:
		return State{Status: StatusLoading, User: state.User}
	case ActionAuthSuccess:
		if action.User == nil {
			return State{Status: StatusUnauthenticated}
		}
		u := *action.User
		return State{Status: StatusAuthenticated, User: &u}
	case ActionAuthFailure:
		return State{Status: StatusUnauthenticated, Err: action.Err}
	case ActionLogout:
		return State{Status: StatusUnauthenticated}
	}
	return state
}

func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

func (s State) HasRole(role string) bool {
	return s.IsAuthenticated() && s.User.Role == role
}

func (s State) IsAdmin() bool { return s.HasRole(user.RoleAdmin) }

func (s State) IsCustomer() bool { return s.HasRole(user.RoleCustomer) }

// Can looks permission up in the static role table.
func (s State) Can(p Permission) bool {
	if !s.IsAuthenticated() {
		return false
	}
	return permissions[s.User.Role][p]
}
