package columns

// aliases lists, per field, the header spellings seen across spreadsheet
// revisions in priority order. New spellings go here only.
var aliases = map[Field][]string{ //nolint:gochecknoglobals // fixed lookup table
	Name:           {"Warscroll", "Warscroll Name", "Unit", "Unit Name", "Name"},
	Faction:        {"Faction", "Faction Name", "Army", "Grand Alliance Faction"},
	Formation:      {"Formation", "Battle Formation", "Subfaction", "Detachment"},
	Games:          {"Games", "Games Played", "Played", "Count", "N", "Lists"},
	Wins:           {"Wins", "Won", "W"},
	Losses:         {"Losses", "Lost", "L"},
	WinRate:        {"Win %", "Win%", "Win Rate", "Winrate", "WR", "Win Percent"},
	WinRateWithout: {"Win % Without", "Win% Without", "Without Win %", "Win Rate Without", "WR Without", "Not Used Win %"},
	UsedPercent:    {"Used %", "Used%", "Used", "Use %", "Used Percent", "Usage %", "Pick %", "Picked %"},
	AvgElo:         {"Avg Elo", "Average Elo", "Mean Elo", "Elo Avg"},
	MedianElo:      {"Median Elo", "Med Elo", "Elo Median"},
	Player:         {"Player", "Player Name", "Name", "Handle"},
	Elo:            {"Elo", "Rating", "Current Elo"},
}
