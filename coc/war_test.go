package coc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	parsed, ok := ParseTime("20240210T153000.000Z")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC), parsed)

	parsed, ok = ParseTime("20240210T153000Z")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC), parsed)

	_, ok = ParseTime("")
	require.False(t, ok)

	_, ok = ParseTime("2024-02-10T15:30:00Z")
	require.False(t, ok)
}

func TestAttacksUsed(t *testing.T) {
	cases := []struct {
		name     string
		attacks  string
		expected int
	}{
		{"list of attacks", `[{"stars":3},{"stars":1}]`, 2},
		{"empty list", `[]`, 0},
		{"plain count", `2`, 2},
		{"absent", ``, 0},
		{"unexpected shape", `"two"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			member := WarMember{Tag: "#TAG"}
			if tc.attacks != "" {
				member.Attacks = json.RawMessage(tc.attacks)
			}
			require.Equal(t, tc.expected, member.AttacksUsed())
		})
	}
}

func TestParseWar(t *testing.T) {
	payload := []byte(`{
		"state": "inWar",
		"teamSize": 10,
		"endTime": "20240210T180000.000Z",
		"clan": {"tag": "#CLAN", "members": [
			{"tag": "#P1", "name": "One", "attacks": [{"stars": 2}]},
			{"tag": "#P2", "name": "Two"}
		]}
	}`)

	war, err := ParseWar(payload)
	require.NoError(t, err)
	require.Equal(t, WarStateInWar, war.State)
	require.Len(t, war.Clan.Members, 2)
	require.Equal(t, 1, war.Clan.Members[0].AttacksUsed())
	require.Equal(t, 0, war.Clan.Members[1].AttacksUsed())

	endsAt, ok := war.EndsAt()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC), endsAt)
}
