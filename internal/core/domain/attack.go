package domain

// Attack is a (host, flagID) pair the session memo uses to avoid repeating
// work already completed for an environment that publishes per-flag hints
// (§3, §4.3 step 2). FlagID is empty for exploits with no hint capability.
type Attack struct {
	Host   string
	FlagID string
}
