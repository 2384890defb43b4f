package mocks

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repositories.UserRepository         = (*UserRepo)(nil)
	_ repositories.QuestionRepository     = (*QuestionRepo)(nil)
	_ repositories.AnswerRepository       = (*AnswerRepo)(nil)
	_ repositories.CommentRepository      = (*CommentRepo)(nil)
	_ repositories.LikeRepository         = (*LikeRepo)(nil)
	_ repositories.FollowRepository       = (*FollowRepo)(nil)
	_ repositories.NotificationRepository = (*NotificationRepo)(nil)
)

// Store is an in-memory backing for the repository mocks. Repositories
// built from the same Store see each other's writes, so cascades behave
// like the database.
type Store struct {
	mu sync.Mutex

	users         map[string]*models.User
	questions     map[string]*models.Question
	answers       map[string]*models.Answer
	comments      map[string]*models.Comment
	likes         map[likeKey]time.Time
	follows       map[[2]string]bool
	notifications []*models.Notification

	// Err, when set, is returned by every repository call.
	Err error
	now time.Time
}

type likeKey struct {
	target, kind, user string
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		questions: make(map[string]*models.Question),
		answers:   make(map[string]*models.Answer),
		comments:  make(map[string]*models.Comment),
		likes:     make(map[likeKey]time.Time),
		follows:   make(map[[2]string]bool),
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s} }
func (s *Store) Questions() *QuestionRepo         { return &QuestionRepo{s} }
func (s *Store) Answers() *AnswerRepo             { return &AnswerRepo{s} }
func (s *Store) Comments() *CommentRepo           { return &CommentRepo{s} }
func (s *Store) Likes() *LikeRepo                 { return &LikeRepo{s} }
func (s *Store) Follows() *FollowRepo             { return &FollowRepo{s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s} }

// AllNotifications returns a copy of every stored notification.
func (s *Store) AllNotifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	return out
}

// UserRepo

type UserRepo struct{ s *Store }

func (r *UserRepo) CreateUser(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = r.s.tick()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepo) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (r *UserRepo) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) SearchUsers(ctx context.Context, query string, excludeID string, limit int) ([]models.User, error) {
	query = strings.ToLower(query)
	return r.ranked(func(u *models.User) bool {
		return u.ID != excludeID && strings.Contains(strings.ToLower(u.Username), query)
	}, limit)
}

func (r *UserRepo) ListSuggested(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error) {
	return r.ranked(func(u *models.User) bool { return !slices.Contains(excludeIDs, u.ID) }, limit)
}

// ranked returns matching users most followed first, ties by username.
func (r *UserRepo) ranked(match func(*models.User) bool, limit int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []models.User{}
	for _, u := range r.s.users {
		if match(u) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FollowersCount != out[j].FollowersCount {
			return out[i].FollowersCount > out[j].FollowersCount
		}
		return out[i].Username < out[j].Username
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QuestionRepo

type QuestionRepo struct{ s *Store }

func (r *QuestionRepo) CreateQuestion(ctx context.Context, question *models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	question.ID = primitive.NewObjectID()
	question.CreatedAt = r.s.tick()
	question.UpdatedAt = question.CreatedAt
	cp := *question
	r.s.questions[question.ID.Hex()] = &cp
	return nil
}

func (r *QuestionRepo) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	q, ok := r.s.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *QuestionRepo) ListQuestions(ctx context.Context, topic string, skip, limit int64) ([]models.Question, error) {
	return r.list(func(q *models.Question) bool {
		return topic == "" || slices.Contains(q.Topics, topic)
	}, skip, limit)
}

func (r *QuestionRepo) SearchQuestions(ctx context.Context, text, topic string, skip, limit int64) ([]models.Question, error) {
	text = strings.ToLower(text)
	return r.list(func(q *models.Question) bool {
		if topic != "" && !slices.Contains(q.Topics, topic) {
			return false
		}
		return strings.Contains(strings.ToLower(q.Title), text) || strings.Contains(strings.ToLower(q.Body), text)
	}, skip, limit)
}

func (r *QuestionRepo) ListByAuthor(ctx context.Context, authorID string, skip, limit int64) ([]models.Question, error) {
	return r.list(func(q *models.Question) bool { return q.AuthorID == authorID }, skip, limit)
}

func (r *QuestionRepo) list(match func(*models.Question) bool, skip, limit int64) ([]models.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []models.Question{}
	for _, q := range r.s.questions {
		if match(q) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return []models.Question{}, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *QuestionRepo) DeleteQuestion(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.questions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.questions, id)
	return nil
}

func (r *QuestionRepo) AddAnswersCount(ctx context.Context, id string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if q, ok := r.s.questions[id]; ok {
		q.AnswersCount += int64(delta)
	}
	return nil
}

func (r *QuestionRepo) GetTitles(ctx context.Context, ids []string) (map[string]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if q, ok := r.s.questions[id]; ok {
			out[id] = q.Title
		}
	}
	return out, nil
}

// AnswerRepo

type AnswerRepo struct{ s *Store }

func (r *AnswerRepo) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	answer.CreatedAt = r.s.tick()
	cp := *answer
	r.s.answers[answer.ID] = &cp
	return nil
}

func (r *AnswerRepo) GetAnswerByID(ctx context.Context, id string) (*models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	a, ok := r.s.answers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AnswerRepo) ListByQuestion(ctx context.Context, questionID string) ([]models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Answer
	for _, a := range r.s.answers {
		if a.QuestionID == questionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AnswerRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []models.Answer{}
	for _, a := range r.s.answers {
		if a.AuthorID == authorID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AnswerRepo) UpdateBody(ctx context.Context, id, body string) (*models.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	a, ok := r.s.answers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	edited := r.s.tick()
	a.Body = body
	a.EditedAt = &edited
	cp := *a
	return &cp, nil
}

func (r *AnswerRepo) DeleteCascade(ctx context.Context, id string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if _, ok := r.s.answers[id]; !ok {
		return nil, repositories.ErrNotFound
	}
	return r.s.deleteAnswerLocked(id), nil
}

func (r *AnswerRepo) DeleteByQuestion(ctx context.Context, questionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for id, a := range r.s.answers {
		if a.QuestionID == questionID {
			r.s.deleteAnswerLocked(id)
		}
	}
	return nil
}

func (s *Store) deleteAnswerLocked(answerID string) []string {
	var removed []string
	for id, c := range s.comments {
		if c.AnswerID == answerID {
			removed = append(removed, id)
			delete(s.comments, id)
			s.dropLikesLocked(models.TargetComment, id)
		}
	}
	delete(s.answers, answerID)
	s.dropLikesLocked(models.TargetAnswer, answerID)
	sort.Strings(removed)
	return removed
}

func (s *Store) dropLikesLocked(kind, targetID string) {
	for k := range s.likes {
		if k.kind == kind && k.target == targetID {
			delete(s.likes, k)
		}
	}
}

// CommentRepo

type CommentRepo struct{ s *Store }

func (r *CommentRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = r.s.tick()
	cp := *comment
	r.s.comments[comment.ID] = &cp
	return nil
}

func (r *CommentRepo) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	c, ok := r.s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CommentRepo) UpdateBody(ctx context.Context, id, body string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	c, ok := r.s.comments[id]
	if !ok || c.Deleted {
		return nil, repositories.ErrNotFound
	}
	edited := r.s.tick()
	c.Body = body
	c.EditedAt = &edited
	cp := *c
	return &cp, nil
}

func (r *CommentRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	c, ok := r.s.comments[id]
	if !ok || c.Deleted {
		return repositories.ErrNotFound
	}
	c.Deleted = true
	c.Body = ""
	return nil
}

func (r *CommentRepo) ListSubtree(ctx context.Context, parentID string) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	inTree := map[string]bool{parentID: true}
	var out []models.Comment
	for changed := true; changed; {
		changed = false
		for id, c := range r.s.comments {
			if !inTree[id] && inTree[c.ParentID] {
				inTree[id] = true
				out = append(out, *c)
				changed = true
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// LikeRepo

type LikeRepo struct{ s *Store }

func (r *LikeRepo) countLocked(targetID, kind string) int64 {
	var n int64
	for k := range r.s.likes {
		if k.target == targetID && k.kind == kind {
			n++
		}
	}
	return n
}

func (r *LikeRepo) Toggle(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, 0, r.s.Err
	}
	key := likeKey{targetID, targetKind, userID}
	_, liked := r.s.likes[key]
	if liked {
		delete(r.s.likes, key)
	} else {
		r.s.likes[key] = r.s.tick()
	}
	return !liked, r.countLocked(targetID, targetKind), nil
}

func (r *LikeRepo) Status(ctx context.Context, targetID, targetKind, userID string) (bool, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, 0, r.s.Err
	}
	_, liked := r.s.likes[likeKey{targetID, targetKind, userID}]
	return liked, r.countLocked(targetID, targetKind), nil
}

func (r *LikeRepo) Counts(ctx context.Context, targetKind string, targetIDs []string) (map[string]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make(map[string]int64, len(targetIDs))
	for _, id := range targetIDs {
		if n := r.countLocked(id, targetKind); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *LikeRepo) LikedBy(ctx context.Context, targetKind string, targetIDs []string, userID string) (map[string]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		if _, ok := r.s.likes[likeKey{id, targetKind, userID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *LikeRepo) DeleteByTargets(ctx context.Context, targetKind string, targetIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, id := range targetIDs {
		r.s.dropLikesLocked(targetKind, id)
	}
	return nil
}

// FollowRepo

type FollowRepo struct{ s *Store }

func (r *FollowRepo) Toggle(ctx context.Context, followerID, followingID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	key := [2]string{followerID, followingID}
	following := !r.s.follows[key]
	if following {
		r.s.follows[key] = true
	} else {
		delete(r.s.follows, key)
	}
	delta := int64(1)
	if !following {
		delta = -1
	}
	if u, ok := r.s.users[followerID]; ok {
		u.FollowingCount = max(u.FollowingCount+delta, 0)
	}
	if u, ok := r.s.users[followingID]; ok {
		u.FollowersCount = max(u.FollowersCount+delta, 0)
	}
	return following, nil
}

func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	return r.s.follows[[2]string{followerID, followingID}], nil
}

func (r *FollowRepo) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []string
	for k := range r.s.follows {
		if k[1] == userID {
			out = append(out, k[0])
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *FollowRepo) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []string
	for k := range r.s.follows {
		if k[0] == userID {
			out = append(out, k[1])
		}
	}
	sort.Strings(out)
	return out, nil
}

// NotificationRepo

type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) CreateNotifications(ctx context.Context, notifications ...*models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.CreatedAt = r.s.tick()
		cp := *n
		r.s.notifications = append(r.s.notifications, &cp)
	}
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Notification
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.s.notifications[i]; n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *NotificationRepo) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var n int64
	for _, notif := range r.s.notifications {
		if notif.RecipientID == recipientID && !notif.Read {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, id, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, n := range r.s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *NotificationRepo) MarkAllAsRead(ctx context.Context, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			n.Read = true
		}
	}
	return nil
}
