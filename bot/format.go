package bot

import (
	"encoding/json"
	"fmt"
	"html"

	"ClanPulse/coc"
)

// The format helpers render raw gateway payloads into short HTML chat
// messages. Missing fields degrade to "N/A" rather than failing the command.

func FormatClan(payload []byte) string {
	var clan struct {
		Name      string `json:"name"`
		Tag       string `json:"tag"`
		ClanLevel int    `json:"clanLevel"`
		Members   int    `json:"members"`
		WarLeague struct {
			Name string `json:"name"`
		} `json:"warLeague"`
	}
	if err := json.Unmarshal(payload, &clan); err != nil {
		return "Could not read clan data."
	}
	return fmt.Sprintf(
		"<b>%s</b>\nTag: <code>%s</code>\nLevel: %d\nMembers: %d\nWar League: %s",
		html.EscapeString(orNA(clan.Name)),
		html.EscapeString(orNA(clan.Tag)),
		clan.ClanLevel,
		clan.Members,
		html.EscapeString(orNA(clan.WarLeague.Name)),
	)
}

func FormatPlayer(payload []byte) string {
	var player struct {
		Name          string `json:"name"`
		Tag           string `json:"tag"`
		TownHallLevel int    `json:"townHallLevel"`
		Trophies      int    `json:"trophies"`
		BestTrophies  int    `json:"bestTrophies"`
		Clan          struct {
			Name string `json:"name"`
		} `json:"clan"`
	}
	if err := json.Unmarshal(payload, &player); err != nil {
		return "Could not read player data."
	}
	clanName := player.Clan.Name
	if clanName == "" {
		clanName = "No clan"
	}
	return fmt.Sprintf(
		"<b>%s</b>\nTag: <code>%s</code>\nTown Hall: %d\nTrophies: %d\nBest Trophies: %d\nClan: %s",
		html.EscapeString(orNA(player.Name)),
		html.EscapeString(orNA(player.Tag)),
		player.TownHallLevel,
		player.Trophies,
		player.BestTrophies,
		html.EscapeString(clanName),
	)
}

func FormatWar(payload []byte) string {
	war, err := coc.ParseWar(payload)
	if err != nil {
		return "Could not read war data."
	}
	return fmt.Sprintf(
		"<b>Current War</b>\nState: %s\nTeam Size: %d\nStart: %s\nEnd: %s",
		html.EscapeString(orNA(war.State)),
		war.TeamSize,
		html.EscapeString(orNA(war.StartAt)),
		html.EscapeString(orNA(war.EndAt)),
	)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
