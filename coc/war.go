package coc

import (
	"encoding/json"
	"time"
)

const (
	WarStatePreparation = "preparation"
	WarStateInWar       = "inWar"
	WarStateEnded       = "warEnded"
)

// War is the slice of the currentwar payload the reminder logic needs. It is
// derived fresh from the gateway on every tick and never persisted.
type War struct {
	State    string  `json:"state"`
	TeamSize int     `json:"teamSize"`
	StartAt  string  `json:"startTime"`
	EndAt    string  `json:"endTime"`
	Clan     WarClan `json:"clan"`
	Opponent WarClan `json:"opponent"`
}

type WarClan struct {
	Tag     string      `json:"tag"`
	Name    string      `json:"name"`
	Members []WarMember `json:"members"`
}

type WarMember struct {
	Tag     string          `json:"tag"`
	Name    string          `json:"name"`
	Attacks json.RawMessage `json:"attacks"`
}

// ParseWar decodes a currentwar payload as returned by the gateway.
func ParseWar(payload []byte) (War, error) {
	var war War
	if err := json.Unmarshal(payload, &war); err != nil {
		return War{}, err
	}
	return war, nil
}

// AttacksUsed tolerates both payload shapes the API has produced: a list of
// attack objects or a plain count.
func (m WarMember) AttacksUsed() int {
	if len(m.Attacks) == 0 {
		return 0
	}
	var list []json.RawMessage
	if err := json.Unmarshal(m.Attacks, &list); err == nil {
		return len(list)
	}
	var count int
	if err := json.Unmarshal(m.Attacks, &count); err == nil {
		return count
	}
	return 0
}

// EndsAt parses the war end timestamp. The second return is false when the
// payload carries no parseable end time (e.g. state notInWar).
func (w War) EndsAt() (time.Time, bool) {
	return ParseTime(w.EndAt)
}

// ParseTime handles the API's compact UTC timestamps, with or without
// fractional seconds.
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"20060102T150405.000Z", "20060102T150405Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
