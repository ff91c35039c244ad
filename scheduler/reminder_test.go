package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ClanPulse/coc"
	"ClanPulse/db"
)

var tickNow = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func warFixture(state string, endsIn time.Duration, memberAttacks map[string]int) coc.War {
	war := coc.War{State: state}
	if endsIn != 0 {
		war.EndAt = tickNow.Add(endsIn).Format("20060102T150405.000Z")
	}
	for tag, used := range memberAttacks {
		member := coc.WarMember{Tag: tag}
		if used > 0 {
			attacks := make([]map[string]int, used)
			for i := range attacks {
				attacks[i] = map[string]int{"stars": 2}
			}
			raw, _ := json.Marshal(attacks)
			member.Attacks = raw
		}
		war.Clan.Members = append(war.Clan.Members, member)
	}
	return war
}

type fakeWars struct {
	war   coc.War
	errs  []error // consumed one per call; nil entries mean success
	calls int
}

func (f *fakeWars) WarState(context.Context, string) (coc.War, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return coc.War{}, err
		}
	}
	return f.war, nil
}

type fakeStore struct {
	scopes    []int64
	bindings  map[int64][]db.Binding
	cooldowns map[int64]map[int64]time.Time
}

func newFakeStore(scopes ...int64) *fakeStore {
	return &fakeStore{
		scopes:    scopes,
		bindings:  make(map[int64][]db.Binding),
		cooldowns: make(map[int64]map[int64]time.Time),
	}
}

func (f *fakeStore) bind(scope, userID int64, tag, name string) {
	f.bindings[scope] = append(f.bindings[scope], db.Binding{
		Scope: scope, UserID: userID, PlayerTag: tag, UserName: name,
	})
}

func (f *fakeStore) ListScopes() ([]int64, error) {
	return f.scopes, nil
}

func (f *fakeStore) ListBindingsForTags(scope int64, tags []string) ([]db.Binding, error) {
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}
	var result []db.Binding
	for _, b := range f.bindings[scope] {
		if wanted[b.PlayerTag] {
			result = append(result, b)
		}
	}
	return result, nil
}

func (f *fakeStore) Cooldowns(scope int64, userIDs []int64) (map[int64]time.Time, error) {
	result := make(map[int64]time.Time)
	for _, id := range userIDs {
		if at, ok := f.cooldowns[scope][id]; ok {
			result[id] = at
		}
	}
	return result, nil
}

func (f *fakeStore) SetCooldowns(scope int64, userIDs []int64, at time.Time) error {
	if f.cooldowns[scope] == nil {
		f.cooldowns[scope] = make(map[int64]time.Time)
	}
	for _, id := range userIDs {
		f.cooldowns[scope][id] = at
	}
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

// newTestReminder returns a reminder with an adjustable clock starting at
// tickNow.
func newTestReminder(wars WarSource, store BindingSource, notifier Notifier) (*Reminder, *time.Time) {
	now := tickNow
	r := New(wars, store, notifier, "#CLAN", 4*time.Hour, time.Hour, 15*time.Minute,
		zap.NewNop(), WithNow(func() time.Time { return now }))
	return r, &now
}

func TestSingleBatchedNotificationPerScope(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{
		"#P1": 0, "#P2": 0, "#P3": 0, "#P4": 2,
	})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	store.bind(-100, 2, "#P2", "Bob")
	store.bind(-100, 3, "#P3", "Carol")
	store.bind(-100, 4, "#P4", "Dave")
	notifier := &fakeNotifier{}

	reminder, _ := newTestReminder(wars, store, notifier)
	reminder.Tick(context.Background())

	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(-100), notifier.sent[0].chatID)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		require.Contains(t, notifier.sent[0].text, name)
	}
	require.NotContains(t, notifier.sent[0].text, "Dave")
}

func TestCooldownSuppressesRepeatWithinHour(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#P1": 0})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	notifier := &fakeNotifier{}
	reminder, now := newTestReminder(wars, store, notifier)

	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 1)

	// 30 minutes later: still cooled down.
	*now = tickNow.Add(30 * time.Minute)
	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 1)

	// 61 minutes after the first reminder: eligible again.
	*now = tickNow.Add(61 * time.Minute)
	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 2)
}

func TestReminderWindowBoundary(t *testing.T) {
	cases := []struct {
		name     string
		state    string
		endsIn   time.Duration
		expected int
	}{
		{"outside window", coc.WarStateInWar, 5 * time.Hour, 0},
		{"inside window", coc.WarStateInWar, 3 * time.Hour, 1},
		{"war already over", coc.WarStateInWar, -time.Minute, 0},
		{"preparation day", coc.WarStatePreparation, 2 * time.Hour, 0},
		{"war ended", coc.WarStateEnded, 2 * time.Hour, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wars := &fakeWars{war: warFixture(tc.state, tc.endsIn, map[string]int{"#P1": 0})}
			store := newFakeStore(-100)
			store.bind(-100, 1, "#P1", "Alice")
			notifier := &fakeNotifier{}

			reminder, _ := newTestReminder(wars, store, notifier)
			reminder.Tick(context.Background())
			require.Len(t, notifier.sent, tc.expected)
		})
	}
}

func TestUnboundMembersAreSkipped(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{
		"#P1": 0, "#UNBOUND": 0,
	})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	notifier := &fakeNotifier{}

	reminder, _ := newTestReminder(wars, store, notifier)
	reminder.Tick(context.Background())

	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0].text, "Alice")
}

func TestNoEligibleMembersNoNotification(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#P1": 1})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	notifier := &fakeNotifier{}

	reminder, _ := newTestReminder(wars, store, notifier)
	reminder.Tick(context.Background())
	require.Empty(t, notifier.sent)
}

func TestScopeFailureDoesNotAbortOthers(t *testing.T) {
	wars := &fakeWars{
		war:  warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#P1": 0, "#P2": 0}),
		errs: []error{coc.ErrRateLimited, nil},
	}
	store := newFakeStore(-100, -200)
	store.bind(-100, 1, "#P1", "Alice")
	store.bind(-200, 2, "#P2", "Bob")
	notifier := &fakeNotifier{}
	reminder, _ := newTestReminder(wars, store, notifier)

	reminder.Tick(context.Background())

	// First scope hit the rate limit and was skipped; the second still got
	// its reminder.
	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(-200), notifier.sent[0].chatID)

	// Next tick retries the failed scope independently.
	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 2)
	require.Equal(t, int64(-100), notifier.sent[1].chatID)
}

func TestNotifierFailureLeavesCooldownUnset(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#P1": 0})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	notifier := &fakeNotifier{err: fmt.Errorf("telegram: api error: chat not found")}
	reminder, _ := newTestReminder(wars, store, notifier)

	reminder.Tick(context.Background())
	require.Empty(t, store.cooldowns[-100])

	// Delivery recovers: the same user is retried on the next tick.
	notifier.err = nil
	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 1)
	require.False(t, store.cooldowns[-100][1].IsZero())
}

func TestDuplicateTagBindingsMentionBothUsers(t *testing.T) {
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#P1": 0})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#P1", "Alice")
	store.bind(-100, 2, "#P1", "Bob")
	notifier := &fakeNotifier{}

	reminder, _ := newTestReminder(wars, store, notifier)
	reminder.Tick(context.Background())

	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0].text, "Alice")
	require.Contains(t, notifier.sent[0].text, "Bob")
}

func TestScenarioClanA(t *testing.T) {
	// Scope with (U1 -> #TAG1), roster #TAG1 with zero attacks, war ends in
	// 2h, window 4h: exactly one notification mentioning U1. A repeat tick 10
	// minutes later produces nothing.
	wars := &fakeWars{war: warFixture(coc.WarStateInWar, 2*time.Hour, map[string]int{"#TAG1": 0})}
	store := newFakeStore(-100)
	store.bind(-100, 1, "#TAG1", "U1")
	notifier := &fakeNotifier{}
	reminder, now := newTestReminder(wars, store, notifier)

	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 1)
	require.Equal(t, 1, strings.Count(notifier.sent[0].text, "U1"))

	*now = tickNow.Add(10 * time.Minute)
	reminder.Tick(context.Background())
	require.Len(t, notifier.sent, 1)
}
