package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ClanPulse/coc"
)

const (
	defaultTopPlayers = 10
	maxTopPlayers     = 50
)

// Gateway is the read surface the handlers serve from. Payloads are passed
// through verbatim; this layer only maps identifiers in and errors out.
type Gateway interface {
	Clan(ctx context.Context, tag string) ([]byte, error)
	Player(ctx context.Context, tag string) ([]byte, error)
	War(ctx context.Context, tag string) ([]byte, error)
	Members(ctx context.Context, tag string) ([]byte, error)
	Raids(ctx context.Context, tag string) ([]byte, error)
}

type Handler struct {
	gateway Gateway
	clanTag string
	log     *zap.Logger
}

// NewHandler serves clan/player/war reads. clanTag is the configured home
// clan used by the clan-scoped routes.
func NewHandler(gateway Gateway, clanTag string, log *zap.Logger) *Handler {
	return &Handler{gateway: gateway, clanTag: clanTag, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

func (h *Handler) Clan(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gateway.Clan(r.Context(), h.tagParam(r))
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gateway.Player(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) War(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gateway.War(r.Context(), h.tagParam(r))
	if err != nil {
		h.writeError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// TopPlayers lists clan members ordered by trophies. The limit query defaults
// to 10 and is capped at 50.
func (h *Handler) TopPlayers(w http.ResponseWriter, r *http.Request) {
	members, ok := h.members(w, r)
	if !ok {
		return
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Trophies > members[j].Trophies
	})
	if limit := limitParam(r); len(members) > limit {
		members = members[:limit]
	}

	body, err := json.Marshal(struct {
		Items []coc.ClanMember `json:"items"`
	}{Items: members})
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type activityReport struct {
	MemberCount            int              `json:"memberCount"`
	TotalDonations         int              `json:"totalDonations"`
	TotalDonationsReceived int              `json:"totalDonationsReceived"`
	AverageTrophies        int              `json:"averageTrophies"`
	TopDonators            []coc.ClanMember `json:"topDonators"`
}

// ActivityReport aggregates the member list into donation and trophy totals.
func (h *Handler) ActivityReport(w http.ResponseWriter, r *http.Request) {
	members, ok := h.members(w, r)
	if !ok {
		return
	}

	body, err := json.Marshal(buildActivityReport(members))
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) Raids(w http.ResponseWriter, r *http.Request) {
	payload, err := h.gateway.Raids(r.Context(), h.tagParam(r))
	if err != nil {
		h.writeError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// members fetches and decodes the clan member list, writing the error response
// itself on failure.
func (h *Handler) members(w http.ResponseWriter, r *http.Request) ([]coc.ClanMember, bool) {
	payload, err := h.gateway.Members(r.Context(), h.tagParam(r))
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return nil, false
	}
	members, err := coc.ParseMembers(payload)
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return nil, false
	}
	return members, true
}

func buildActivityReport(members []coc.ClanMember) activityReport {
	report := activityReport{MemberCount: len(members)}
	trophies := 0
	for _, m := range members {
		report.TotalDonations += m.Donations
		report.TotalDonationsReceived += m.DonationsReceived
		trophies += m.Trophies
	}
	if len(members) > 0 {
		report.AverageTrophies = trophies / len(members)
	}

	donators := append([]coc.ClanMember(nil), members...)
	sort.SliceStable(donators, func(i, j int) bool {
		return donators[i].Donations > donators[j].Donations
	})
	if len(donators) > 5 {
		donators = donators[:5]
	}
	report.TopDonators = donators
	return report
}

// tagParam returns the ?tag= override or the configured home clan.
func (h *Handler) tagParam(r *http.Request) string {
	if tag := r.URL.Query().Get("tag"); tag != "" {
		return tag
	}
	return h.clanTag
}

func limitParam(r *http.Request) int {
	limit := defaultTopPlayers
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxTopPlayers {
		limit = maxTopPlayers
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
