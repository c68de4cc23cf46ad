package espn

// Identifier tables for the fantasy v3 API. The API reports positions, lineup
// slots and pro teams as numeric ids only.

var positionNames = map[int]string{
	1:  "QB",
	2:  "RB",
	3:  "WR",
	4:  "TE",
	5:  "K",
	7:  "P",
	9:  "DT",
	10: "DE",
	11: "LB",
	12: "CB",
	13: "S",
	14: "HC",
	16: "D/ST",
}

var lineupSlotNames = map[int]string{
	0:  "QB",
	2:  "RB",
	3:  "RB/WR",
	4:  "WR",
	5:  "WR/TE",
	6:  "TE",
	7:  "OP",
	16: "D/ST",
	17: "K",
	20: "BE",
	21: "IR",
	23: "FLEX",
	24: "EDR",
}

var proTeamNames = map[int]string{
	0:  "FA",
	1:  "ATL",
	2:  "BUF",
	3:  "CHI",
	4:  "CIN",
	5:  "CLE",
	6:  "DAL",
	7:  "DEN",
	8:  "DET",
	9:  "GB",
	10: "TEN",
	11: "IND",
	12: "KC",
	13: "LV",
	14: "LAR",
	15: "MIA",
	16: "MIN",
	17: "NE",
	18: "NO",
	19: "NYG",
	20: "NYJ",
	21: "PHI",
	22: "ARI",
	23: "PIT",
	24: "LAC",
	25: "SF",
	26: "SEA",
	27: "TB",
	28: "WSH",
	29: "CAR",
	30: "JAX",
	33: "BAL",
	34: "HOU",
}

func positionName(id int) string {
	if name, ok := positionNames[id]; ok {
		return name
	}
	return "UNKNOWN"
}

func lineupSlotName(id int) string {
	if name, ok := lineupSlotNames[id]; ok {
		return name
	}
	return "UNKNOWN"
}

func proTeamName(id int) string {
	if name, ok := proTeamNames[id]; ok {
		return name
	}
	return "UNKNOWN"
}
