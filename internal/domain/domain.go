package domain

// Role is the permission tier of a user. Administrators satisfy every
// requirement, captains satisfy Captain and Default, default users only Default.
type Role string

const (
	RoleDefault       Role = "Default"
	RoleCaptain       Role = "Captain"
	RoleAdministrator Role = "Administrator"
)

// Satisfies reports whether a caller holding r may perform an operation
// requiring at least the given role.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdministrator:
		return true
	case RoleCaptain:
		return required == RoleCaptain || required == RoleDefault
	case RoleDefault:
		return required == RoleDefault
	}

	return false
}

// User represents a registered player, captain or administrator.
type User struct {
	UserID    string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`

	// PasswordHash doubles as the client credential secret: after login the
	// client authenticates every request with "id:hash". It is scrubbed from
	// every response except the login one.
	PasswordHash string `json:"passwordHash,omitempty"`
	PasswordSalt []byte `json:"-"`

	Role  Role `json:"role"`
	Score int  `json:"score"`

	ProfilePictureID string `json:"profilePictureId,omitempty"`

	// PendingChallenges maps a challenge ID to the stored proof image blob.
	// A challenge present here is awaiting validation and cannot be resubmitted.
	PendingChallenges map[string]string `json:"-"`
	// FinishedChallenges maps a challenge ID to the number of validated completions.
	FinishedChallenges map[string]int `json:"finishedChallenges,omitempty"`
}

// DisplayName is the name shown to captains on the validation queue.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Team groups users under a single captain. A user belongs to at most one
// team, and the captain is never a plain member of another team.
type Team struct {
	TeamID      string `json:"id"`
	Name        string `json:"name"`
	CaptainID   string `json:"captainId"`
	CaptainName string `json:"captainName,omitempty"`

	Members []string `json:"members"`
	Score   int      `json:"score"`

	ImageID string `json:"imageId,omitempty"`

	FinishedChallenges map[string]int `json:"finishedChallenges,omitempty"`
}

// HasMember reports whether the user is a plain member of the team.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}

	return false
}

// Challenge is a catalog entry players or teams complete for points.
type Challenge struct {
	ChallengeID string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Image carries the raw picture on create/update requests only; once
	// persisted the picture lives in the blob store under ImageID.
	Image   []byte `json:"image,omitempty"`
	ImageID string `json:"imageId,omitempty"`

	Value               int `json:"value"`
	NumberOfRepetitions int `json:"numberOfRepetitions"`

	IsForTeam bool `json:"isForTeam"`
	IsVisible bool `json:"isVisible"`
}

// GameSettings is the singleton controlling leaderboard exposure to
// non-administrators. Created lazily with both flags false.
type GameSettings struct {
	SettingsID            string `json:"id"`
	IsUsersRankingVisible bool   `json:"isUsersRankingVisible"`
	IsTeamsRankingVisible bool   `json:"isTeamsRankingVisible"`
}

// PlayerChallenge is a challenge joined with a player's progress.
type PlayerChallenge struct {
	ChallengeID string `json:"id"`
	ImageID     string `json:"imageId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       int    `json:"value"`

	WaitingValidation bool `json:"waitingValidation"`
	NumberLeft        int  `json:"numberLeft"`
}

// TeamChallenge is a challenge joined with a team's progress.
type TeamChallenge struct {
	ChallengeID string `json:"id"`
	ImageID     string `json:"imageId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       int    `json:"value"`

	NumberLeft int `json:"numberLeft"`
}

// WaitingChallenge is a pending submission shown to a captain or
// administrator for validation.
type WaitingChallenge struct {
	ChallengeID string `json:"id"`
	ImageID     string `json:"imageId,omitempty"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RankingEntry is one row of a leaderboard, best score first.
type RankingEntry struct {
	SubjectID string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
}
