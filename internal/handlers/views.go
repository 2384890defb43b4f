package handlers

import (
	"context"

	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
)

func authorsOf(ctx context.Context, users repositories.UserRepository, ids []string) map[string]models.UserCompact {
	out := make(map[string]models.UserCompact, len(ids))
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return out
	}
	for id, u := range found {
		out[id] = u.ToCompact()
	}
	return out
}

func commentViews(ctx context.Context, users repositories.UserRepository, comments []models.Comment) []models.CommentView {
	authorIDs := make([]string, 0, len(comments))
	children := make(map[string][]string, len(comments))
	for _, cm := range comments {
		authorIDs = append(authorIDs, cm.AuthorID)
		children[cm.ParentID] = append(children[cm.ParentID], cm.ID)
	}
	authors := authorsOf(ctx, users, authorIDs)

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		childIDs := children[cm.ID]
		if childIDs == nil {
			childIDs = []string{}
		}
		author := authors[cm.AuthorID]
		if cm.Deleted {
			author = models.UserCompact{}
		}
		views = append(views, models.CommentView{
			ID:         cm.ID,
			ParentID:   cm.ParentID,
			ParentKind: cm.ParentKind,
			Author:     author,
			Body:       cm.Body,
			Deleted:    cm.Deleted,
			ChildIDs:   childIDs,
			CreatedAt:  cm.CreatedAt,
			EditedAt:   cm.EditedAt,
		})
	}
	return views
}

func answerViews(ctx context.Context, users repositories.UserRepository, likes repositories.LikeRepository, viewerID string, answers []models.Answer) []models.AnswerView {
	ids := make([]string, 0, len(answers))
	authorIDs := make([]string, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
		authorIDs = append(authorIDs, a.AuthorID)
	}
	authors := authorsOf(ctx, users, authorIDs)
	counts, _ := likes.Counts(ctx, models.TargetAnswer, ids)
	liked, _ := likes.LikedBy(ctx, models.TargetAnswer, ids, viewerID)

	views := make([]models.AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, models.AnswerView{
			ID:         a.ID,
			QuestionID: a.QuestionID,
			Author:     authors[a.AuthorID],
			Body:       a.Body,
			Liked:      liked[a.ID],
			LikesCount: counts[a.ID],
			CreatedAt:  a.CreatedAt,
			EditedAt:   a.EditedAt,
		})
	}
	return views
}

func questionViews(ctx context.Context, users repositories.UserRepository, likes repositories.LikeRepository, viewerID string, questions []models.Question) []models.QuestionView {
	ids := make([]string, 0, len(questions))
	authorIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID.Hex())
		authorIDs = append(authorIDs, q.AuthorID)
	}
	authors := authorsOf(ctx, users, authorIDs)
	counts, _ := likes.Counts(ctx, models.TargetQuestion, ids)
	liked, _ := likes.LikedBy(ctx, models.TargetQuestion, ids, viewerID)

	views := make([]models.QuestionView, 0, len(questions))
	for _, q := range questions {
		id := q.ID.Hex()
		views = append(views, models.QuestionView{
			Question:   q,
			Author:     authors[q.AuthorID],
			Liked:      liked[id],
			LikesCount: counts[id],
		})
	}
	return views
}
