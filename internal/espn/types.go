package espn

// League is the read-only handle for one league-year. It is constructed by
// Client.League and retains enough state to make follow-up calls (box scores)
// with the credentials it was built with.
type League struct {
	ID          int
	Year        int
	CurrentWeek int
	NFLWeek     int
	Settings    Settings
	Teams       []*Team

	client *Client
	s2     string
	swid   string
}

// Settings carries the subset of league settings exposed to callers.
type Settings struct {
	Name        string
	ScoringType string
	TeamCount   int
}

// Team is one franchise in a league, with season-to-date record and roster.
type Team struct {
	ID            int
	Name          string
	Abbrev        string
	Owners        []string
	Wins          int
	Losses        int
	Ties          int
	PointsFor     float64
	PointsAgainst float64
	Acquisitions  int
	Drops         int
	Trades        int
	PlayoffPct    float64
	FinalStanding int
	Outcomes      []string
	Roster        []*Player
}

// Player is a rostered player with applied season totals.
type Player struct {
	ID              int
	Name            string
	Position        string
	LineupSlot      string
	ProTeam         string
	Injured         bool
	InjuryStatus    string
	TotalPoints     float64
	ProjectedPoints float64
	Stats           map[int]StatLine
}

// StatLine is the applied score for one scoring period.
type StatLine struct {
	Points    float64
	Projected float64
}

// BoxScore is one matchup in a scoring period. AwayTeam is empty on a bye.
type BoxScore struct {
	Week      int
	HomeTeam  string
	HomeScore float64
	AwayTeam  string
	AwayScore float64
}

// Wire shapes for the fantasy v3 API. Only the fields consumed during
// conversion are declared.

type leagueResponse struct {
	ID       int             `json:"id"`
	SeasonID int             `json:"seasonId"`
	Status   leagueStatus    `json:"status"`
	Settings leagueSettings  `json:"settings"`
	Members  []leagueMember  `json:"members"`
	Teams    []teamResponse  `json:"teams"`
	Schedule []scheduleEntry `json:"schedule"`
}

type leagueStatus struct {
	CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
	LatestScoringPeriod  int `json:"latestScoringPeriod"`
}

type leagueSettings struct {
	Name            string `json:"name"`
	ScoringSettings struct {
		ScoringType string `json:"scoringType"`
	} `json:"scoringSettings"`
	Size int `json:"size"`
}

type leagueMember struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type teamResponse struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Abbrev              string   `json:"abbrev"`
	Owners              []string `json:"owners"`
	RankCalculatedFinal int      `json:"rankCalculatedFinal"`
	CurrentSimulation   struct {
		PlayoffPct float64 `json:"playoffPct"`
	} `json:"currentSimulationResults"`
	Record struct {
		Overall struct {
			Wins          int     `json:"wins"`
			Losses        int     `json:"losses"`
			Ties          int     `json:"ties"`
			PointsFor     float64 `json:"pointsFor"`
			PointsAgainst float64 `json:"pointsAgainst"`
		} `json:"overall"`
	} `json:"record"`
	TransactionCounter struct {
		Acquisitions int `json:"acquisitions"`
		Drops        int `json:"drops"`
		Trades       int `json:"trades"`
	} `json:"transactionCounter"`
	Roster struct {
		Entries []rosterEntry `json:"entries"`
	} `json:"roster"`
}

type rosterEntry struct {
	LineupSlotID    int `json:"lineupSlotId"`
	PlayerPoolEntry struct {
		Player playerResponse `json:"player"`
	} `json:"playerPoolEntry"`
}

type playerResponse struct {
	ID                int         `json:"id"`
	FullName          string      `json:"fullName"`
	DefaultPositionID int         `json:"defaultPositionId"`
	ProTeamID         int         `json:"proTeamId"`
	Injured           bool        `json:"injured"`
	InjuryStatus      string      `json:"injuryStatus"`
	Stats             []statEntry `json:"stats"`
}

type statEntry struct {
	SeasonID        int     `json:"seasonId"`
	ScoringPeriodID int     `json:"scoringPeriodId"`
	StatSourceID    int     `json:"statSourceId"`    // 0 actual, 1 projected
	StatSplitTypeID int     `json:"statSplitTypeId"` // 0 season total, 1 single week
	AppliedTotal    float64 `json:"appliedTotal"`
}

type scheduleEntry struct {
	MatchupPeriodID int          `json:"matchupPeriodId"`
	Home            matchupSide  `json:"home"`
	Away            *matchupSide `json:"away"`
}

type matchupSide struct {
	TeamID      int     `json:"teamId"`
	TotalPoints float64 `json:"totalPoints"`
}
