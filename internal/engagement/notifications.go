package engagement

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Feed is a snapshot of the notification list, most recent first.
type Feed struct {
	Items  []Notification `json:"notifications"`
	Unread int            `json:"unread"`
}

// Notifications merges polled notifications into a local feed. Entries are
// keyed by id and never duplicated. The read flag follows the remote unless
// a local read intent was unresolved when the poll began or was issued
// after it.
type Notifications struct {
	remote Remote
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*feedEntry
	order   []string

	// gen increments on every local read intent. A poll records a floor when
	// it starts; intents newer than the floor outrank the polled read flags.
	// The floor sits below every intent still unresolved at that moment.
	gen        uint64
	allReadGen uint64
	pending    map[string]int
	pendingAll int
	unresolved map[uint64]struct{}

	watchers observers[Feed]
}

type feedEntry struct {
	n       Notification
	readGen uint64
}

func NewNotifications(remote Remote, log zerolog.Logger) *Notifications {
	return &Notifications{
		remote:  remote,
		log:     log.With().Str("component", "notifications").Logger(),
		entries: make(map[string]*feedEntry),
		pending:    make(map[string]int),
		unresolved: make(map[uint64]struct{}),
	}
}

// Poll fetches the remote list and merges it. On failure the feed is left
// as it was.
func (n *Notifications) Poll(ctx context.Context) error {
	n.mu.Lock()
	started := n.floor()
	n.mu.Unlock()

	items, err := n.remote.ListNotifications(ctx)
	if err != nil {
		return remoteFailure("poll notifications", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	added := n.merge(items, started)
	n.publish()

	n.log.Debug().Int("fetched", len(items)).Int("added", added).Int("unread", n.unread()).Msg("notifications merged")
	return nil
}

// Merge folds a batch into the feed as if it were fetched by a poll that
// started now. It is idempotent.
func (n *Notifications) Merge(items []Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.merge(items, n.floor())
	n.publish()
}

func (n *Notifications) merge(items []Notification, started uint64) int {
	added := 0
	for _, item := range items {
		if item.ID == "" {
			continue
		}

		e, ok := n.entries[item.ID]
		if !ok {
			e = &feedEntry{}
			n.entries[item.ID] = e
			n.order = append(n.order, item.ID)
			added++
		}

		local := e.n.Read
		e.n = item
		if n.localIntent(item.ID, e, started) {
			if ok {
				e.n.Read = local
			} else {
				e.n.Read = true
			}
		}
	}

	if added > 0 {
		n.reorder()
	}
	return added
}

func (n *Notifications) localIntent(id string, e *feedEntry, started uint64) bool {
	if n.pending[id] > 0 || n.pendingAll > 0 {
		return true
	}
	return max(e.readGen, n.allReadGen) > started
}

// floor is the generation a poll starting now is ordered after. The remote
// may answer from a state that predates any unresolved intent, so those
// intents count as newer than the poll even if they resolve before it merges.
func (n *Notifications) floor() uint64 {
	f := n.gen
	for g := range n.unresolved {
		f = min(f, g-1)
	}
	return f
}

func (n *Notifications) reorder() {
	sort.SliceStable(n.order, func(i, j int) bool {
		a, b := n.entries[n.order[i]].n, n.entries[n.order[j]].n
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// MarkRead marks id read locally, then confirms with the remote. A failure
// restores the flag unless a newer intent has touched the entry since.
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	const op = "mark notification read"

	n.mu.Lock()
	e, ok := n.entries[id]
	if !ok {
		n.mu.Unlock()
		return &NotFoundError{Kind: "notification", ID: id}
	}
	if e.n.Read {
		n.mu.Unlock()
		return nil
	}
	n.gen++
	gen := n.gen
	prevGen := e.readGen
	e.n.Read = true
	e.readGen = gen
	n.pending[id]++
	n.unresolved[gen] = struct{}{}
	n.publish()
	n.mu.Unlock()

	err := n.remote.MarkNotificationRead(ctx, id)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.release(id)
	delete(n.unresolved, gen)
	if err != nil {
		if e.readGen == gen {
			e.n.Read = false
			e.readGen = prevGen
		}
		n.publish()
		n.log.Warn().Err(err).Str("notification", id).Msg("mark read reverted")
		return remoteFailure(op, err)
	}
	return nil
}

func (n *Notifications) release(id string) {
	n.pending[id]--
	if n.pending[id] <= 0 {
		delete(n.pending, id)
	}
}

// MarkAllRead marks every entry read locally, then confirms with the remote.
// A failure restores the entries this call flipped.
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	const op = "mark all notifications read"

	n.mu.Lock()
	n.gen++
	gen := n.gen
	prevAllGen := n.allReadGen
	prevGens := make(map[string]uint64, len(n.entries))
	var flipped []string
	for id, e := range n.entries {
		if !e.n.Read {
			flipped = append(flipped, id)
			e.n.Read = true
		}
		prevGens[id] = e.readGen
		e.readGen = gen
	}
	n.allReadGen = gen
	n.pendingAll++
	n.unresolved[gen] = struct{}{}
	n.publish()
	n.mu.Unlock()

	err := n.remote.MarkAllNotificationsRead(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.pendingAll--
	delete(n.unresolved, gen)
	if err != nil {
		for _, id := range flipped {
			if e := n.entries[id]; e != nil && e.readGen == gen {
				e.n.Read = false
			}
		}
		for id, prev := range prevGens {
			if e := n.entries[id]; e != nil && e.readGen == gen {
				e.readGen = prev
			}
		}
		if n.allReadGen == gen {
			n.allReadGen = prevAllGen
		}
		n.publish()
		n.log.Warn().Err(err).Int("reverted", len(flipped)).Msg("mark all read reverted")
		return remoteFailure(op, err)
	}
	return nil
}

func (n *Notifications) unread() int {
	count := 0
	for _, e := range n.entries {
		if !e.n.Read {
			count++
		}
	}
	return count
}

func (n *Notifications) snapshot() Feed {
	items := make([]Notification, 0, len(n.order))
	for _, id := range n.order {
		items = append(items, n.entries[id].n)
	}
	return Feed{Items: items, Unread: n.unread()}
}

func (n *Notifications) publish() {
	if n.watchers.len() > 0 {
		n.watchers.publish(n.snapshot())
	}
}

func (n *Notifications) Snapshot() Feed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshot()
}

func (n *Notifications) Unread() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unread()
}

// Watch streams feed snapshots, starting with the current one.
func (n *Notifications) Watch() (<-chan Feed, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id, ch := n.watchers.add(n.snapshot())
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			n.watchers.remove(id)
		})
	}
}
