package footballdata

// Wire envelopes for the football-data.org v4 API. Only the fields the
// canonical schema needs are decoded.

type areaPayload struct {
	Name string `json:"name"`
}

type competitionPayload struct {
	ID            int64       `json:"id"`
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	Area          areaPayload `json:"area"`
	CurrentSeason struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"currentSeason"`
}

type competitionsEnvelope struct {
	Competitions []competitionPayload `json:"competitions"`
}

type teamPayload struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	ShortName string      `json:"shortName"`
	TLA       string      `json:"tla"`
	Crest     string      `json:"crest"`
	Area      areaPayload `json:"area"`
	Founded   int         `json:"founded"`
	Venue     string      `json:"venue"`
}

type teamsEnvelope struct {
	Teams []teamPayload `json:"teams"`
}

type squadMemberPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
	ShirtNumber int    `json:"shirtNumber"`
}

type teamDetailEnvelope struct {
	teamPayload
	Squad []squadMemberPayload `json:"squad"`
}

type matchTeamPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type matchPayload struct {
	ID       int64            `json:"id"`
	UTCDate  string           `json:"utcDate"`
	Status   string           `json:"status"`
	Venue    string           `json:"venue"`
	HomeTeam matchTeamPayload `json:"homeTeam"`
	AwayTeam matchTeamPayload `json:"awayTeam"`
	Season   struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"season"`
	Score struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
	Referees []struct {
		Name string `json:"name"`
	} `json:"referees"`
}

type matchesEnvelope struct {
	Matches []matchPayload `json:"matches"`
}

type standingRowPayload struct {
	Position     int              `json:"position"`
	Team         matchTeamPayload `json:"team"`
	PlayedGames  int              `json:"playedGames"`
	Won          int              `json:"won"`
	Draw         int              `json:"draw"`
	Lost         int              `json:"lost"`
	Points       int              `json:"points"`
	GoalsFor     int              `json:"goalsFor"`
	GoalsAgainst int              `json:"goalsAgainst"`
}

type standingsEnvelope struct {
	Standings []struct {
		Type  string               `json:"type"`
		Table []standingRowPayload `json:"table"`
	} `json:"standings"`
}
