package runner

import "sync"

// AttackMemo remembers which (host, flag_id) attacks an exploit has already
// completed, so a later tick's collect_flag_ids enrichment does not re-run
// work already done (§4.3 step 2, step 8).
type AttackMemo struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewAttackMemo builds an empty memo.
func NewAttackMemo() *AttackMemo {
	return &AttackMemo{seen: make(map[string]struct{})}
}

func memoKey(host, flagID string) string {
	return host + "\x00" + flagID
}

// Done reports whether (host, flagID) has already been marked complete.
func (m *AttackMemo) Done(host, flagID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[memoKey(host, flagID)]
	return ok
}

// Mark records (host, flagID) as complete.
func (m *AttackMemo) Mark(host, flagID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[memoKey(host, flagID)] = struct{}{}
}
