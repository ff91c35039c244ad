package coc

import "encoding/json"

// ClanMember is one entry of the clan member list resource.
type ClanMember struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	Trophies          int    `json:"trophies"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
}

type memberList struct {
	Items []ClanMember `json:"items"`
}

// ParseMembers decodes a clan member list payload.
func ParseMembers(payload []byte) ([]ClanMember, error) {
	var list memberList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}
