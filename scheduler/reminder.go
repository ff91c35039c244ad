package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ClanPulse/coc"
	"ClanPulse/db"
)

// WarSource produces the current war snapshot, normally the caching gateway.
type WarSource interface {
	WarState(ctx context.Context, tag string) (coc.War, error)
}

// BindingSource is the durable binding/cooldown state the tick reads and the
// post-send cooldown write goes to.
type BindingSource interface {
	ListScopes() ([]int64, error)
	ListBindingsForTags(scope int64, tags []string) ([]db.Binding, error)
	Cooldowns(scope int64, userIDs []int64) (map[int64]time.Time, error)
	SetCooldowns(scope int64, userIDs []int64, at time.Time) error
}

// Notifier delivers one batched reminder message to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Reminder runs the recurring war reminder loop: on every tick it checks the
// current war through the gateway and pings bound users who have not attacked
// yet, once per scope, inside the reminder window, respecting cooldowns.
type Reminder struct {
	wars     WarSource
	store    BindingSource
	notifier Notifier
	clanTag  string
	window   time.Duration
	cooldown time.Duration
	interval time.Duration
	now      func() time.Time
	cron     *cron.Cron
	log      *zap.Logger
}

type Option func(*Reminder)

// WithNow overrides the clock used for window and cooldown decisions.
func WithNow(now func() time.Time) Option {
	return func(r *Reminder) {
		if now != nil {
			r.now = now
		}
	}
}

func New(wars WarSource, store BindingSource, notifier Notifier, clanTag string,
	window, cooldown, interval time.Duration, log *zap.Logger, opts ...Option) *Reminder {
	r := &Reminder{
		wars:     wars,
		store:    store,
		notifier: notifier,
		clanTag:  clanTag,
		window:   window,
		cooldown: cooldown,
		interval: interval,
		now:      time.Now,
		cron:     cron.New(),
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start schedules the recurring tick and returns immediately.
func (r *Reminder) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, func() {
		tickCtx, cancel := context.WithTimeout(ctx, r.interval)
		defer cancel()
		r.Tick(tickCtx)
	}); err != nil {
		return fmt.Errorf("scheduler: schedule reminder: %w", err)
	}
	r.cron.Start()
	r.log.Info("war reminder scheduler started",
		zap.Duration("interval", r.interval),
		zap.Duration("window", r.window))
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (r *Reminder) Stop() {
	<-r.cron.Stop().Done()
}

// Tick runs one reminder pass over all scopes. Failures are logged and
// contained per scope; nothing escapes the loop.
func (r *Reminder) Tick(ctx context.Context) {
	scopes, err := r.store.ListScopes()
	if err != nil {
		r.log.Error("failed to list scopes", zap.Error(err))
		return
	}
	for _, scope := range scopes {
		r.remindScope(ctx, scope)
	}
}

func (r *Reminder) remindScope(ctx context.Context, scope int64) {
	war, err := r.wars.WarState(ctx, r.clanTag)
	if err != nil {
		r.log.Warn("war fetch failed, skipping scope",
			zap.Int64("scope", scope), zap.Error(err))
		return
	}

	now := r.now()
	tags := pendingAttackTags(war, now, r.window)
	if len(tags) == 0 {
		return
	}

	// Snapshot bindings once; concurrent binds during the tick are tolerated.
	bindings, err := r.store.ListBindingsForTags(scope, tags)
	if err != nil {
		r.log.Warn("binding lookup failed, skipping scope",
			zap.Int64("scope", scope), zap.Error(err))
		return
	}
	if len(bindings) == 0 {
		return
	}

	cooldowns, err := r.store.Cooldowns(scope, userIDs(bindings))
	if err != nil {
		r.log.Warn("cooldown lookup failed, skipping scope",
			zap.Int64("scope", scope), zap.Error(err))
		return
	}

	due := dueForReminder(bindings, cooldowns, now, r.cooldown)
	if len(due) == 0 {
		return
	}

	// One batched message per scope per tick, never one per user.
	if err := r.notifier.SendMessage(ctx, scope, reminderMessage(due)); err != nil {
		r.log.Warn("reminder delivery failed",
			zap.Int64("scope", scope), zap.Error(err))
		return
	}

	// At-least-once: if this write fails the users may be reminded again next
	// tick, which beats silently losing the cooldown after a delivered message.
	if err := r.store.SetCooldowns(scope, userIDs(due), now); err != nil {
		r.log.Error("cooldown update failed after send",
			zap.Int64("scope", scope), zap.Error(err))
	}

	r.log.Info("war reminder sent",
		zap.Int64("scope", scope),
		zap.Int("users", len(due)))
}
