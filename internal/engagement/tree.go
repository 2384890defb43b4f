package engagement

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Node is one answer or comment in the discourse tree. For answers ParentID
// is the question id.
type Node struct {
	ID        string
	Kind      NodeKind
	ParentID  string
	Author    UserRef
	Body      string
	Deleted   bool
	ChildIDs  []string
	CreatedAt time.Time
	EditedAt  time.Time
}

func (n *Node) clone() Node {
	c := *n
	c.ChildIDs = slices.Clone(n.ChildIDs)
	return c
}

// ThreadItem is a visible node with its depth below the thread root.
type ThreadItem struct {
	Node
	Depth int
}

// Tree is an arena of answers and comments indexed by id. Children are held
// as ordered id lists; structural edits are applied only after the remote
// accepts them.
type Tree struct {
	remote Remote
	log    zerolog.Logger

	mu      sync.Mutex
	nodes   map[string]*Node
	answers map[string][]string
	loaded  map[string]bool

	group singleflight.Group
}

func NewTree(remote Remote, log zerolog.Logger) *Tree {
	return &Tree{
		remote:  remote,
		log:     log.With().Str("component", "tree").Logger(),
		nodes:   make(map[string]*Node),
		answers: make(map[string][]string),
		loaded:  make(map[string]bool),
	}
}

// LoadAnswers replaces the answer list of a question with the remote one.
// Comment threads already loaded for surviving answers are kept.
func (t *Tree) LoadAnswers(ctx context.Context, questionID string) ([]Node, error) {
	answers, err := t.remote.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, remoteFailure("load answers", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		t.putAnswer(a)
		ids = append(ids, a.ID)
	}
	for _, old := range t.answers[questionID] {
		if !slices.Contains(ids, old) {
			t.removeSubtree(old)
		}
	}
	t.answers[questionID] = ids
	return t.answersOf(questionID), nil
}

// PutAnswer records an answer learned elsewhere, for example one the user
// just posted. It is appended to its question's answer list.
func (t *Tree) PutAnswer(a Answer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.putAnswer(a)
	if !slices.Contains(t.answers[a.QuestionID], a.ID) {
		t.answers[a.QuestionID] = append(t.answers[a.QuestionID], a.ID)
	}
}

func (t *Tree) putAnswer(a Answer) {
	n, ok := t.nodes[a.ID]
	if !ok {
		n = &Node{ID: a.ID, Kind: NodeAnswer}
		t.nodes[a.ID] = n
	}
	n.ParentID = a.QuestionID
	n.Author = a.Author
	n.Body = a.Body
	n.CreatedAt = a.CreatedAt
	n.EditedAt = a.EditedAt
}

func (t *Tree) Answers(questionID string) []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.answersOf(questionID)
}

func (t *Tree) answersOf(questionID string) []Node {
	out := make([]Node, 0, len(t.answers[questionID]))
	for _, id := range t.answers[questionID] {
		if n, ok := t.nodes[id]; ok {
			out = append(out, n.clone())
		}
	}
	return out
}

// lookup returns a live node of one of the given kinds.
func (t *Tree) lookup(id string, kinds ...NodeKind) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok || n.Deleted || !slices.Contains(kinds, n.Kind) {
		kind := "node"
		if len(kinds) == 1 {
			kind = string(kinds[0])
		}
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	return n, nil
}

// AttachReply posts a comment under an answer or comment and appends it to
// the end of the parent's children once the remote accepts it.
func (t *Tree) AttachReply(ctx context.Context, parentID, body string) (Node, error) {
	const op = "attach reply"

	body = strings.TrimSpace(body)
	if body == "" {
		return Node{}, invalid(op, ErrEmptyBody)
	}
	parent, err := t.lookup(parentID, NodeAnswer, NodeComment)
	if err != nil {
		return Node{}, err
	}

	t.mu.Lock()
	ref := NodeRef{ID: parentID, Kind: parent.Kind}
	t.mu.Unlock()

	c, err := t.remote.AttachComment(ctx, ref, body)
	if err != nil {
		return Node{}, remoteFailure(op, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nodes[parentID] != parent {
		// Parent was removed while the request was in flight.
		return Node{}, &NotFoundError{Kind: string(ref.Kind), ID: parentID}
	}
	n := &Node{
		ID:        c.ID,
		Kind:      NodeComment,
		ParentID:  parentID,
		Author:    c.Author,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		EditedAt:  c.EditedAt,
	}
	t.nodes[n.ID] = n
	if !slices.Contains(parent.ChildIDs, n.ID) {
		parent.ChildIDs = append(parent.ChildIDs, n.ID)
	}
	t.loaded[n.ID] = true

	t.log.Debug().Str("parent", parentID).Str("comment", n.ID).Msg("reply attached")
	return n.clone(), nil
}

// EditNode replaces the body of an answer or comment in place.
func (t *Tree) EditNode(ctx context.Context, nodeID, body string) (Node, error) {
	const op = "edit node"

	body = strings.TrimSpace(body)
	if body == "" {
		return Node{}, invalid(op, ErrEmptyBody)
	}
	n, err := t.lookup(nodeID, NodeAnswer, NodeComment)
	if err != nil {
		return Node{}, err
	}

	t.mu.Lock()
	kind := n.Kind
	t.mu.Unlock()

	var (
		newBody  string
		editedAt time.Time
	)
	switch kind {
	case NodeAnswer:
		a, err := t.remote.EditAnswer(ctx, nodeID, body)
		if err != nil {
			return Node{}, remoteFailure(op, err)
		}
		newBody, editedAt = a.Body, a.EditedAt
	default:
		c, err := t.remote.EditComment(ctx, nodeID, body)
		if err != nil {
			return Node{}, remoteFailure(op, err)
		}
		newBody, editedAt = c.Body, c.EditedAt
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nodes[nodeID] != n {
		return Node{}, &NotFoundError{Kind: string(kind), ID: nodeID}
	}
	n.Body = newBody
	if editedAt.IsZero() {
		editedAt = time.Now()
	}
	n.EditedAt = editedAt
	return n.clone(), nil
}

// SoftDeleteComment turns a comment into a tombstone. Its replies stay in the
// tree and remain visible beneath a placeholder.
func (t *Tree) SoftDeleteComment(ctx context.Context, nodeID string) error {
	n, err := t.lookup(nodeID, NodeComment)
	if err != nil {
		return err
	}
	if err := t.remote.DeleteComment(ctx, nodeID); err != nil {
		return remoteFailure("delete comment", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	n.Deleted = true
	n.Body = ""
	return nil
}

// HardDeleteAnswer removes an answer and every comment below it. It returns
// the ids of all removed nodes, the answer first.
func (t *Tree) HardDeleteAnswer(ctx context.Context, nodeID string) ([]string, error) {
	n, err := t.lookup(nodeID, NodeAnswer)
	if err != nil {
		return nil, err
	}
	if err := t.remote.DeleteAnswer(ctx, nodeID); err != nil {
		return nil, remoteFailure("delete answer", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	questionID := n.ParentID
	t.answers[questionID] = slices.DeleteFunc(t.answers[questionID], func(id string) bool { return id == nodeID })
	removed := t.removeSubtree(nodeID)

	t.log.Debug().Str("answer", nodeID).Int("removed", len(removed)).Msg("answer deleted")
	return removed, nil
}

func (t *Tree) removeSubtree(rootID string) []string {
	var removed []string
	t.walk(rootID, func(n *Node, _ int) bool {
		removed = append(removed, n.ID)
		return true
	})
	for _, id := range removed {
		delete(t.nodes, id)
		delete(t.loaded, id)
	}
	return removed
}

// walk visits rootID and its descendants depth first in child order. Ids
// already seen are skipped, so a corrupt parent chain cannot loop. Returning
// false from fn prunes that node's children.
func (t *Tree) walk(rootID string, fn func(n *Node, depth int) bool) {
	seen := make(map[string]bool)
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, ok := t.nodes[id]
		if !ok {
			return
		}
		if !fn(n, depth) {
			return
		}
		for _, child := range n.ChildIDs {
			visit(child, depth+1)
		}
	}
	visit(rootID, 0)
}

// LoadSubtree fetches the comment thread below parentID once per session.
// Later calls, and concurrent ones, are served from the arena.
func (t *Tree) LoadSubtree(ctx context.Context, parentID string) ([]ThreadItem, error) {
	if _, err := t.lookup(parentID, NodeAnswer, NodeComment); err != nil {
		return nil, err
	}

	t.mu.Lock()
	cached := t.loaded[parentID]
	t.mu.Unlock()
	if cached {
		return t.Thread(parentID), nil
	}

	_, err, _ := t.group.Do(parentID, func() (any, error) {
		if t.Loaded(parentID) {
			return nil, nil
		}
		comments, err := t.remote.ListComments(ctx, parentID)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		t.insertThread(parentID, comments)
		return nil, nil
	})
	if err != nil {
		return nil, remoteFailure("load comments", err)
	}
	return t.Thread(parentID), nil
}

// insertThread indexes a flattened thread. Child order comes from each
// comment's childIds when present, otherwise from the order of the batch.
func (t *Tree) insertThread(rootID string, comments []Comment) {
	root, ok := t.nodes[rootID]
	if !ok {
		return
	}

	batch := make(map[string]Comment, len(comments))
	children := make(map[string][]string)
	for _, c := range comments {
		if c.ID == "" || c.ID == rootID {
			continue
		}
		if _, dup := batch[c.ID]; dup {
			continue
		}
		batch[c.ID] = c
		children[c.ParentID] = append(children[c.ParentID], c.ID)
	}

	// Keep only comments whose parent chain reaches the root without looping.
	reaches := func(id string) bool {
		seen := map[string]bool{}
		for id != rootID {
			if seen[id] {
				return false
			}
			seen[id] = true
			c, ok := batch[id]
			if !ok {
				return false
			}
			id = c.ParentID
		}
		return true
	}

	for id, c := range batch {
		if !reaches(id) {
			t.log.Warn().Str("comment", id).Str("root", rootID).Msg("dropping comment outside thread")
			continue
		}
		n, ok := t.nodes[id]
		if !ok {
			n = &Node{ID: id, Kind: NodeComment}
			t.nodes[id] = n
		}
		n.ParentID = c.ParentID
		n.Author = c.Author
		n.Body = c.Body
		n.Deleted = c.Deleted
		n.CreatedAt = c.CreatedAt
		n.EditedAt = c.EditedAt
		n.ChildIDs = orderedChildren(c.ChildIDs, children[id])
		t.loaded[id] = true
	}

	root.ChildIDs = mergeChildren(root.ChildIDs, children[rootID])
	t.loaded[rootID] = true
}

// orderedChildren keeps the declared order and appends anything declared
// only through a parent link.
func orderedChildren(declared, linked []string) []string {
	out := make([]string, 0, len(linked))
	for _, id := range declared {
		if slices.Contains(linked, id) {
			out = append(out, id)
		}
	}
	for _, id := range linked {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func mergeChildren(existing, fetched []string) []string {
	out := slices.Clone(fetched)
	for _, id := range existing {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Thread returns the visible nodes below parentID in display order. A
// soft-deleted comment is listed only while it still has a live descendant.
func (t *Tree) Thread(parentID string) []ThreadItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	var items []ThreadItem
	t.walk(parentID, func(n *Node, depth int) bool {
		if n.ID == parentID {
			return true
		}
		if n.Deleted && !t.hasLiveDescendant(n.ID) {
			return false
		}
		items = append(items, ThreadItem{Node: n.clone(), Depth: depth})
		return true
	})
	return items
}

func (t *Tree) hasLiveDescendant(id string) bool {
	live := false
	t.walk(id, func(n *Node, _ int) bool {
		if n.ID != id && !n.Deleted {
			live = true
		}
		return !live
	})
	return live
}

// Children returns the visible direct children of a node.
func (t *Tree) Children(parentID string) []Node {
	var out []Node
	for _, item := range t.Thread(parentID) {
		if item.Depth == 1 {
			out = append(out, item.Node)
		}
	}
	return out
}

func (t *Tree) Node(id string) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Loaded reports whether the thread below parentID has been fetched.
func (t *Tree) Loaded(parentID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded[parentID]
}
