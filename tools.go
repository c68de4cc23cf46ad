package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gridiron-hq/fantasy-bridge/internal/audit"
	"github.com/gridiron-hq/fantasy-bridge/internal/auth"
	"github.com/gridiron-hq/fantasy-bridge/internal/browser"
	"github.com/gridiron-hq/fantasy-bridge/internal/credential"
	"github.com/gridiron-hq/fantasy-bridge/internal/espn"
	"github.com/gridiron-hq/fantasy-bridge/internal/league"
	"github.com/gridiron-hq/fantasy-bridge/internal/profile"
)

// defaultSession is the slot used when neither the tool argument nor the
// environment names a session.
const defaultSession = "default"

// toolDeps are the shared collaborators behind every tool handler.
type toolDeps struct {
	coordinator *auth.Coordinator
	leagues     *league.Cache
	store       *credential.Store
	profiles    *profile.Store
}

func registerTools(s *server.MCPServer, deps *toolDeps) {
	s.AddTool(mcp.NewTool("authenticate",
		mcp.WithDescription("Open a browser window to log into ESPN and capture the espn_s2 and SWID cookies for this session. Only needed when credentials are missing or rejected."),
		mcp.WithNumber("timeout_seconds", mcp.Description("Maximum time to wait for the login to complete")),
		mcp.WithString("session_id", mcp.Description("Optional session identifier; defaults from the environment")),
	), deps.handleAuthenticate)

	s.AddTool(mcp.NewTool("logout",
		mcp.WithDescription("Clear stored ESPN credentials and cached league data for this session."),
		mcp.WithString("session_id", mcp.Description("Optional session identifier whose credentials and caches will be cleared")),
	), deps.handleLogout)

	s.AddTool(mcp.NewTool("get_league_info",
		leagueOptions("Get basic information about a fantasy football league.")...,
	), deps.handleLeagueInfo)

	s.AddTool(mcp.NewTool("get_team_roster",
		leagueOptions("Get a team's current roster.",
			mcp.WithNumber("team_id", mcp.Required(), mcp.Description("The team id in the league (usually 1-12)")),
		)...,
	), deps.handleTeamRoster)

	s.AddTool(mcp.NewTool("get_team_info",
		leagueOptions("Get a team's record, points and transaction activity.",
			mcp.WithNumber("team_id", mcp.Required(), mcp.Description("The team id in the league (usually 1-12)")),
		)...,
	), deps.handleTeamInfo)

	s.AddTool(mcp.NewTool("get_player_stats",
		leagueOptions("Get stats for a player rostered in the league, found by name.",
			mcp.WithString("player_name", mcp.Required(), mcp.Description("Name (or part of the name) of the player")),
		)...,
	), deps.handlePlayerStats)

	s.AddTool(mcp.NewTool("get_league_standings",
		leagueOptions("Get current league standings, ranked by wins then points scored.")...,
	), deps.handleStandings)

	s.AddTool(mcp.NewTool("get_matchup_info",
		leagueOptions("Get matchup scores for a week of the season.",
			mcp.WithNumber("week", mcp.Description("Week number; defaults to the current week")),
		)...,
	), deps.handleMatchups)

	s.AddTool(mcp.NewTool("list_leagues",
		mcp.WithDescription("List league aliases configured on this server."),
	), deps.handleListLeagues)
}

// leagueOptions builds the full option set for a data-retrieving tool: its
// description, the shared league/session arguments, then any tool-specific
// extras.
func leagueOptions(desc string, extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithDescription(desc),
		mcp.WithNumber("league_id", mcp.Description("The ESPN fantasy football league id")),
		mcp.WithString("league", mcp.Description("A configured league alias, as an alternative to league_id")),
		mcp.WithNumber("year", mcp.Description("Season year; defaults to the current season")),
		mcp.WithString("session_id", mcp.Description("Optional session identifier for per-user credentials")),
	}
	return append(opts, extra...)
}

// resolveSession prefers the explicit argument, then the environment, then
// the process-wide default slot.
func resolveSession(arg string) string {
	if s := strings.TrimSpace(arg); s != "" {
		return s
	}
	if s := os.Getenv("MCP_SESSION_ID"); s != "" {
		return s
	}
	if s := os.Getenv("SESSION_ID"); s != "" {
		return s
	}
	return defaultSession
}

// defaultSeason is the season in play: the calendar year, or the previous
// year before July (the league year spans the new year).
func defaultSeason(now time.Time) int {
	year := now.Year()
	if now.Month() < time.July {
		year--
	}
	return year
}

// resolveLeague turns the tool arguments into a concrete (league id, year)
// pair, consulting the alias profiles when league_id is not given.
func (d *toolDeps) resolveLeague(req mcp.CallToolRequest) (int, int, error) {
	leagueID := req.GetInt("league_id", 0)
	year := req.GetInt("year", 0)

	if leagueID == 0 {
		alias := req.GetString("league", "")
		if alias == "" {
			return 0, 0, errors.New("either league_id or league is required")
		}
		l, ok := d.profiles.Lookup(alias)
		if !ok {
			return 0, 0, fmt.Errorf("unknown league alias %q; configured aliases: %s", alias, strings.Join(d.profiles.Aliases(), ", "))
		}
		leagueID = l.ID
		if year == 0 {
			year = l.Year
		}
	}

	if year == 0 {
		year = defaultSeason(time.Now())
	}

	return leagueID, year, nil
}

// getLeague resolves session and league arguments and fetches the handle,
// recording the lookup on the audit entry.
func (d *toolDeps) getLeague(ctx context.Context, req mcp.CallToolRequest) (*espn.League, error) {
	session := resolveSession(req.GetString("session_id", ""))

	leagueID, year, err := d.resolveLeague(req)
	if err != nil {
		return nil, err
	}

	entry := audit.Log(ctx)
	entry.Session = session
	entry.LeagueID = leagueID
	entry.Year = year

	return d.leagues.Get(ctx, session, leagueID, year)
}

func (d *toolDeps) handleAuthenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := resolveSession(req.GetString("session_id", ""))
	audit.Log(ctx).Session = session

	timeout := time.Duration(req.GetInt("timeout_seconds", 0)) * time.Second

	cred, state, err := d.coordinator.Authenticate(ctx, session, timeout)
	if err != nil {
		return errorResult(ctx, "authenticate", err), nil
	}

	// The credential purge invariant: any league handle built before this
	// login must not be served under the new identity.
	d.leagues.PurgeSession(session)

	return jsonResult(ctx, "authenticate", map[string]any{
		"status":  "authenticated",
		"session": session,
		"espn_s2": cred.S2,
		"swid":    cred.SWID,
		"source":  state.Source,
		"note":    "These values are applied to this session. Copy them into your connector's environment or a local .env to skip the browser next time.",
	})
}

func (d *toolDeps) handleLogout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session := resolveSession(req.GetString("session_id", ""))
	audit.Log(ctx).Session = session

	d.store.Clear(session)
	d.leagues.PurgeSession(session)

	return jsonResult(ctx, "logout", map[string]any{
		"status":  "logged_out",
		"session": session,
	})
}

func (d *toolDeps) handleLeagueInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_league_info", err), nil
	}

	teams := make([]string, 0, len(l.Teams))
	for _, t := range l.Teams {
		teams = append(teams, t.Name)
	}

	return jsonResult(ctx, "get_league_info", map[string]any{
		"name":         l.Settings.Name,
		"year":         l.Year,
		"current_week": l.CurrentWeek,
		"nfl_week":     l.NFLWeek,
		"team_count":   len(l.Teams),
		"teams":        teams,
		"scoring_type": l.Settings.ScoringType,
	})
}

func (d *toolDeps) handleTeamRoster(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_team_roster", err), nil
	}

	team, err := teamByID(l, req.GetInt("team_id", 0))
	if err != nil {
		return errorResult(ctx, "get_team_roster", err), nil
	}

	roster := make([]map[string]any, 0, len(team.Roster))
	for _, p := range team.Roster {
		roster = append(roster, map[string]any{
			"name":             p.Name,
			"position":         p.Position,
			"lineup_slot":      p.LineupSlot,
			"pro_team":         p.ProTeam,
			"points":           p.TotalPoints,
			"projected_points": p.ProjectedPoints,
			"stats":            p.Stats,
		})
	}

	return jsonResult(ctx, "get_team_roster", map[string]any{
		"team_name": team.Name,
		"owner":     team.Owners,
		"wins":      team.Wins,
		"losses":    team.Losses,
		"roster":    roster,
	})
}

func (d *toolDeps) handleTeamInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_team_info", err), nil
	}

	team, err := teamByID(l, req.GetInt("team_id", 0))
	if err != nil {
		return errorResult(ctx, "get_team_info", err), nil
	}

	return jsonResult(ctx, "get_team_info", map[string]any{
		"team_name":      team.Name,
		"owner":          team.Owners,
		"wins":           team.Wins,
		"losses":         team.Losses,
		"ties":           team.Ties,
		"points_for":     team.PointsFor,
		"points_against": team.PointsAgainst,
		"acquisitions":   team.Acquisitions,
		"drops":          team.Drops,
		"trades":         team.Trades,
		"playoff_pct":    team.PlayoffPct,
		"final_standing": team.FinalStanding,
		"outcomes":       team.Outcomes,
	})
}

func (d *toolDeps) handlePlayerStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_player_stats", err), nil
	}

	name, err := req.RequireString("player_name")
	if err != nil {
		return errorResult(ctx, "get_player_stats", err), nil
	}

	player := findPlayer(l, name)
	if player == nil {
		return errorResult(ctx, "get_player_stats", fmt.Errorf("player %q not found in league %d", name, l.ID)), nil
	}

	return jsonResult(ctx, "get_player_stats", map[string]any{
		"name":             player.Name,
		"position":         player.Position,
		"team":             player.ProTeam,
		"points":           player.TotalPoints,
		"projected_points": player.ProjectedPoints,
		"stats":            player.Stats,
		"injured":          player.Injured,
		"injury_status":    player.InjuryStatus,
	})
}

func (d *toolDeps) handleStandings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_league_standings", err), nil
	}

	return jsonResult(ctx, "get_league_standings", standings(l))
}

func (d *toolDeps) handleMatchups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, err := d.getLeague(ctx, req)
	if err != nil {
		return errorResult(ctx, "get_matchup_info", err), nil
	}

	week := req.GetInt("week", 0)
	if week == 0 {
		week = l.CurrentWeek
	}
	if week < 1 {
		return errorResult(ctx, "get_matchup_info", fmt.Errorf("invalid week %d: must be 1 or greater", week)), nil
	}

	scores, err := l.BoxScores(ctx, week)
	if err != nil {
		return errorResult(ctx, "get_matchup_info", err), nil
	}

	matchups := make([]map[string]any, 0, len(scores))
	for _, s := range scores {
		awayTeam := s.AwayTeam
		if awayTeam == "" {
			awayTeam = "BYE"
		}
		matchups = append(matchups, map[string]any{
			"home_team":  s.HomeTeam,
			"home_score": s.HomeScore,
			"away_team":  awayTeam,
			"away_score": s.AwayScore,
			"winner":     winner(s),
		})
	}

	return jsonResult(ctx, "get_matchup_info", map[string]any{
		"week":     week,
		"matchups": matchups,
	})
}

func (d *toolDeps) handleListLeagues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(ctx, "list_leagues", map[string]any{
		"aliases": d.profiles.Aliases(),
	})
}

func teamByID(l *espn.League, id int) (*espn.Team, error) {
	if id < 1 || id > len(l.Teams) {
		return nil, fmt.Errorf("invalid team_id %d: must be between 1 and %d", id, len(l.Teams))
	}
	return l.Teams[id-1], nil
}

func findPlayer(l *espn.League, name string) *espn.Player {
	needle := strings.ToLower(name)
	for _, team := range l.Teams {
		for _, p := range team.Roster {
			if strings.Contains(strings.ToLower(p.Name), needle) {
				return p
			}
		}
	}
	return nil
}

// standings ranks teams by wins, then points scored.
func standings(l *espn.League) []map[string]any {
	ranked := make([]*espn.Team, len(l.Teams))
	copy(ranked, l.Teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return ranked[i].PointsFor > ranked[j].PointsFor
	})

	out := make([]map[string]any, 0, len(ranked))
	for i, t := range ranked {
		out = append(out, map[string]any{
			"rank":           i + 1,
			"team_name":      t.Name,
			"owner":          t.Owners,
			"wins":           t.Wins,
			"losses":         t.Losses,
			"points_for":     t.PointsFor,
			"points_against": t.PointsAgainst,
		})
	}
	return out
}

func winner(s espn.BoxScore) string {
	switch {
	case s.AwayTeam == "":
		return "HOME"
	case s.HomeScore > s.AwayScore:
		return "HOME"
	case s.AwayScore > s.HomeScore:
		return "AWAY"
	default:
		return "TIE"
	}
}

// jsonResult serializes a payload for the structured response channel.
func jsonResult(ctx context.Context, op string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult(ctx, op, fmt.Errorf("serializing response: %w", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult converts a failure into the structured error payload. The
// classification is read from the error chain; it is never re-derived from
// message text here.
func errorResult(ctx context.Context, op string, err error) *mcp.CallToolResult {
	audit.Log(ctx).Error = err.Error()

	payload := map[string]any{
		"error":   true,
		"context": op,
		"message": err.Error(),
	}

	switch {
	case errors.Is(err, browser.ErrAuthTimeout):
		payload["kind"] = "auth_timeout"
		payload["suggestion"] = "Run the authenticate tool again and complete the ESPN login in the opened browser window."
	case errors.Is(err, browser.ErrBrowserLaunch):
		payload["kind"] = "browser_launch"
		payload["suggestion"] = "The browser runtime is not installed on this host; see the error message for install instructions."
	default:
		kind := espn.KindOf(err)
		payload["kind"] = kind.String()
		if status := espn.StatusOf(err); status != 0 {
			payload["status"] = status
		}
		if kind == espn.KindAuth {
			payload["suggestion"] = "This league appears to be private. Run the authenticate tool to log in via browser, then retry."
		}
	}

	data, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}
