package scheduler

import (
	"strings"
	"time"

	"ClanPulse/coc"
	"ClanPulse/db"
	"ClanPulse/telegram"
)

// pendingAttackTags returns the normalized tags of roster members who have
// used zero attacks, but only while the war is in progress and ends within
// window. Outside that span no reminders fire at all.
func pendingAttackTags(war coc.War, now time.Time, window time.Duration) []string {
	if war.State != coc.WarStateInWar {
		return nil
	}
	endsAt, ok := war.EndsAt()
	if !ok {
		return nil
	}
	remaining := endsAt.Sub(now)
	if remaining <= 0 || remaining > window {
		return nil
	}

	var tags []string
	for _, member := range war.Clan.Members {
		if member.Tag == "" || member.AttacksUsed() != 0 {
			continue
		}
		normalized, err := coc.NormalizeTag(member.Tag)
		if err != nil {
			continue
		}
		tags = append(tags, normalized)
	}
	return tags
}

// dueForReminder filters bindings down to users outside their cooldown,
// deduplicated by user.
func dueForReminder(bindings []db.Binding, cooldowns map[int64]time.Time, now time.Time, cooldown time.Duration) []db.Binding {
	seen := make(map[int64]bool, len(bindings))
	var due []db.Binding
	for _, b := range bindings {
		if seen[b.UserID] {
			continue
		}
		seen[b.UserID] = true
		if last, ok := cooldowns[b.UserID]; ok && now.Sub(last) < cooldown {
			continue
		}
		due = append(due, b)
	}
	return due
}

func reminderMessage(due []db.Binding) string {
	mentions := make([]string, 0, len(due))
	for _, b := range due {
		mentions = append(mentions, telegram.Mention(b.UserID, b.UserName))
	}
	return "War reminder: " + strings.Join(mentions, ", ") + " you still have attacks remaining."
}

func userIDs(bindings []db.Binding) []int64 {
	ids := make([]int64, 0, len(bindings))
	for _, b := range bindings {
		ids = append(ids, b.UserID)
	}
	return ids
}
