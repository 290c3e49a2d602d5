package domain

// TrackedWallet is an address under observation together with the set of
// transaction signatures already processed for it. The seen set grows
// monotonically for the lifetime of a run and is mutated only by the wallet
// poller.
type TrackedWallet struct {
	Address string
	Seen    map[string]struct{}
}

// NewTrackedWallet creates a tracked wallet with an empty seen set.
func NewTrackedWallet(address string) *TrackedWallet {
	return &TrackedWallet{
		Address: address,
		Seen:    make(map[string]struct{}),
	}
}

// MarkSeen records a signature as processed. Returns false if it was already
// marked.
func (w *TrackedWallet) MarkSeen(signature string) bool {
	if _, ok := w.Seen[signature]; ok {
		return false
	}
	w.Seen[signature] = struct{}{}
	return true
}

// HasSeen reports whether a signature was already processed.
func (w *TrackedWallet) HasSeen(signature string) bool {
	_, ok := w.Seen[signature]
	return ok
}
