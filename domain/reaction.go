package domain

// ReactionGroup is the aggregated view of one emoji on one message.
// Users holds display names resolved at read time, so a snapshot never
// goes stale against the directory.
type ReactionGroup struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// ReactionSnapshot maps each emoji recorded for a message to its group.
type ReactionSnapshot map[string]ReactionGroup
