package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/gridiron-hq/fantasy-bridge/internal/config"
)

const defaultAPIURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

const (
	cookieS2   = "espn_s2"
	cookieSWID = "SWID"
)

// Client talks to the ESPN fantasy v3 read API. A single client is shared by
// all sessions; credentials are supplied per call.
type Client struct {
	http *resty.Client
}

// New creates a client from configuration. A non-nil transport (typically the
// instrumented outbound transport) replaces the default.
func New(cfg config.ESPNConfig, transport http.RoundTripper) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	c := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetHeader("Accept", "application/json")

	if transport != nil {
		c.SetTransport(transport)
	}

	return &Client{http: c}
}

// League constructs the handle for one league-year, fetching settings, teams
// and rosters in a single request. The supplied cookie pair is retained on the
// handle for follow-up calls.
func (c *Client) League(ctx context.Context, leagueID, year int, s2, swid string) (*League, error) {
	op := fmt.Sprintf("league %d/%d", leagueID, year)

	var out leagueResponse
	resp, err := c.request(ctx, s2, swid).
		SetQueryParamsFromValues(url.Values{
			"view": {"mSettings", "mTeam", "mRoster", "mMatchup"},
		}).
		SetResult(&out).
		Get(leaguePath(leagueID, year))
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.IsError() {
		return nil, classifyStatus(op, resp.StatusCode())
	}

	league := convertLeague(&out)
	league.client = c
	league.s2 = s2
	league.swid = swid

	log.Debug().
		Int("league", leagueID).
		Int("year", year).
		Int("teams", len(league.Teams)).
		Msg("league constructed")

	return league, nil
}

// BoxScores returns the matchups for a scoring period of this league, fetched
// with the credentials the handle was built with.
func (l *League) BoxScores(ctx context.Context, week int) ([]BoxScore, error) {
	op := fmt.Sprintf("box scores %d/%d week %d", l.ID, l.Year, week)

	var out leagueResponse
	resp, err := l.client.request(ctx, l.s2, l.swid).
		SetQueryParams(map[string]string{
			"view":            "mMatchup",
			"scoringPeriodId": strconv.Itoa(week),
		}).
		SetResult(&out).
		Get(leaguePath(l.ID, l.Year))
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.IsError() {
		return nil, classifyStatus(op, resp.StatusCode())
	}

	names := make(map[int]string, len(l.Teams))
	for _, t := range l.Teams {
		names[t.ID] = t.Name
	}

	scores := make([]BoxScore, 0, len(out.Schedule))
	for _, m := range out.Schedule {
		if m.MatchupPeriodID != week {
			continue
		}
		score := BoxScore{
			Week:      week,
			HomeTeam:  names[m.Home.TeamID],
			HomeScore: m.Home.TotalPoints,
		}
		if m.Away != nil {
			score.AwayTeam = names[m.Away.TeamID]
			score.AwayScore = m.Away.TotalPoints
		}
		scores = append(scores, score)
	}

	return scores, nil
}

func (c *Client) request(ctx context.Context, s2, swid string) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if s2 != "" {
		r.SetCookie(&http.Cookie{Name: cookieS2, Value: s2})
	}
	if swid != "" {
		r.SetCookie(&http.Cookie{Name: cookieSWID, Value: swid})
	}
	return r
}

func leaguePath(leagueID, year int) string {
	return fmt.Sprintf("/seasons/%d/segments/0/leagues/%d", year, leagueID)
}

func convertLeague(raw *leagueResponse) *League {
	owners := make(map[string]string, len(raw.Members))
	for _, m := range raw.Members {
		owners[m.ID] = m.DisplayName
	}

	league := &League{
		ID:          raw.ID,
		Year:        raw.SeasonID,
		CurrentWeek: raw.Status.CurrentMatchupPeriod,
		NFLWeek:     raw.Status.LatestScoringPeriod,
		Settings: Settings{
			Name:        raw.Settings.Name,
			ScoringType: raw.Settings.ScoringSettings.ScoringType,
			TeamCount:   raw.Settings.Size,
		},
		Teams: make([]*Team, 0, len(raw.Teams)),
	}

	for _, t := range raw.Teams {
		league.Teams = append(league.Teams, convertTeam(t, raw.SeasonID, owners))
	}

	// Team ids are 1-based and callers index by them; keep the slice ordered.
	sort.Slice(league.Teams, func(i, j int) bool {
		return league.Teams[i].ID < league.Teams[j].ID
	})

	outcomes := convertOutcomes(raw.Schedule, raw.Status.CurrentMatchupPeriod)
	for _, t := range league.Teams {
		t.Outcomes = outcomes[t.ID]
	}

	return league
}

// convertOutcomes derives each team's week-by-week W/L/T list from completed
// matchups. The current and future weeks carry no outcome yet; neither do
// bye weeks.
func convertOutcomes(schedule []scheduleEntry, currentWeek int) map[int][]string {
	ordered := make([]scheduleEntry, len(schedule))
	copy(ordered, schedule)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MatchupPeriodID < ordered[j].MatchupPeriodID
	})

	outcomes := make(map[int][]string)
	for _, m := range ordered {
		if m.MatchupPeriodID >= currentWeek || m.Away == nil {
			continue
		}
		switch {
		case m.Home.TotalPoints > m.Away.TotalPoints:
			outcomes[m.Home.TeamID] = append(outcomes[m.Home.TeamID], "W")
			outcomes[m.Away.TeamID] = append(outcomes[m.Away.TeamID], "L")
		case m.Away.TotalPoints > m.Home.TotalPoints:
			outcomes[m.Home.TeamID] = append(outcomes[m.Home.TeamID], "L")
			outcomes[m.Away.TeamID] = append(outcomes[m.Away.TeamID], "W")
		default:
			outcomes[m.Home.TeamID] = append(outcomes[m.Home.TeamID], "T")
			outcomes[m.Away.TeamID] = append(outcomes[m.Away.TeamID], "T")
		}
	}
	return outcomes
}

func convertTeam(raw teamResponse, year int, owners map[string]string) *Team {
	team := &Team{
		ID:            raw.ID,
		Name:          raw.Name,
		Abbrev:        raw.Abbrev,
		Wins:          raw.Record.Overall.Wins,
		Losses:        raw.Record.Overall.Losses,
		Ties:          raw.Record.Overall.Ties,
		PointsFor:     raw.Record.Overall.PointsFor,
		PointsAgainst: raw.Record.Overall.PointsAgainst,
		Acquisitions:  raw.TransactionCounter.Acquisitions,
		Drops:         raw.TransactionCounter.Drops,
		Trades:        raw.TransactionCounter.Trades,
		PlayoffPct:    raw.CurrentSimulation.PlayoffPct,
		FinalStanding: raw.RankCalculatedFinal,
	}

	for _, guid := range raw.Owners {
		if name, ok := owners[guid]; ok && name != "" {
			team.Owners = append(team.Owners, name)
		} else {
			team.Owners = append(team.Owners, guid)
		}
	}

	for _, entry := range raw.Roster.Entries {
		team.Roster = append(team.Roster, convertPlayer(entry, year))
	}

	return team
}

func convertPlayer(entry rosterEntry, year int) *Player {
	raw := entry.PlayerPoolEntry.Player

	player := &Player{
		ID:           raw.ID,
		Name:         raw.FullName,
		Position:     positionName(raw.DefaultPositionID),
		LineupSlot:   lineupSlotName(entry.LineupSlotID),
		ProTeam:      proTeamName(raw.ProTeamID),
		Injured:      raw.Injured,
		InjuryStatus: raw.InjuryStatus,
		Stats:        make(map[int]StatLine),
	}

	for _, stat := range raw.Stats {
		if stat.SeasonID != year {
			continue
		}
		switch {
		case stat.StatSplitTypeID == 0 && stat.StatSourceID == 0:
			player.TotalPoints = stat.AppliedTotal
		case stat.StatSplitTypeID == 0 && stat.StatSourceID == 1:
			player.ProjectedPoints = stat.AppliedTotal
		case stat.StatSplitTypeID == 1:
			line := player.Stats[stat.ScoringPeriodID]
			if stat.StatSourceID == 0 {
				line.Points = stat.AppliedTotal
			} else {
				line.Projected = stat.AppliedTotal
			}
			player.Stats[stat.ScoringPeriodID] = line
		}
	}

	return player
}
