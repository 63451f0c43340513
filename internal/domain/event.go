package domain

const (
	EventNameUserScoreUpdated = "score.user.updated"
	EventNameTeamScoreUpdated = "score.team.updated"
	EventNameUserRoleChanged  = "user.role.changed"
	EventNameUserDeleted      = "user.deleted"
	EventNameTeamDeleted      = "team.deleted"
)

type EventUserScoreUpdated struct {
	UserID   string
	Username string
	Score    int
}

func (EventUserScoreUpdated) Name() string { return EventNameUserScoreUpdated }

type EventTeamScoreUpdated struct {
	TeamID   string
	TeamName string
	Score    int
}

func (EventTeamScoreUpdated) Name() string { return EventNameTeamScoreUpdated }

type EventUserRoleChanged struct {
	UserID   string
	Username string
	Role     Role
	Score    int
}

func (EventUserRoleChanged) Name() string { return EventNameUserRoleChanged }

type EventUserDeleted struct {
	UserID string
}

func (EventUserDeleted) Name() string { return EventNameUserDeleted }

type EventTeamDeleted struct {
	TeamID string
}

func (EventTeamDeleted) Name() string { return EventNameTeamDeleted }
