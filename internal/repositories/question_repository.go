package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/wisora/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepository defines the interface for question data operations
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestionByID(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, topic string, skip, limit int64) ([]models.Question, error)
	// SearchQuestions matches text case-insensitively against titles and
	// bodies. Empty arguments do not filter.
	SearchQuestions(ctx context.Context, text, topic string, skip, limit int64) ([]models.Question, error)
	ListByAuthor(ctx context.Context, authorID string, skip, limit int64) ([]models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	AddAnswersCount(ctx context.Context, id string, delta int) error
	GetTitles(ctx context.Context, ids []string) (map[string]string, error)
}

// MongoQuestionRepository implements QuestionRepository for MongoDB
type MongoQuestionRepository struct {
	collection *mongo.Collection
}

// NewMongoQuestionRepository creates a new MongoQuestionRepository
func NewMongoQuestionRepository(db *mongo.Database) *MongoQuestionRepository {
	return &MongoQuestionRepository{collection: db.Collection("questions")}
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid question ID format: %w", ErrNotFound)
	}
	return objID, nil
}

func (r *MongoQuestionRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	question.ID = primitive.NewObjectID()
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt
	if question.Topics == nil {
		question.Topics = []string{}
	}
	_, err := r.collection.InsertOne(ctx, question)
	return err
}

func (r *MongoQuestionRepository) GetQuestionByID(ctx context.Context, id string) (*models.Question, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var question models.Question
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&question); err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// ListQuestions returns questions newest first, optionally filtered by topic.
func (r *MongoQuestionRepository) ListQuestions(ctx context.Context, topic string, skip, limit int64) ([]models.Question, error) {
	filter := bson.M{}
	if topic != "" {
		filter["topics"] = topic
	}
	return r.find(ctx, filter, skip, limit)
}

func (r *MongoQuestionRepository) SearchQuestions(ctx context.Context, text, topic string, skip, limit int64) ([]models.Question, error) {
	filter := bson.M{}
	if text != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"body": pattern},
		}
	}
	if topic != "" {
		filter["topics"] = topic
	}
	return r.find(ctx, filter, skip, limit)
}

func (r *MongoQuestionRepository) ListByAuthor(ctx context.Context, authorID string, skip, limit int64) ([]models.Question, error) {
	return r.find(ctx, bson.M{"author_id": authorID}, skip, limit)
}

// find runs filter newest first.
func (r *MongoQuestionRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Question, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	questions := []models.Question{}
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *MongoQuestionRepository) DeleteQuestion(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoQuestionRepository) AddAnswersCount(ctx context.Context, id string, delta int) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"answers_count": delta}})
	return err
}

// GetTitles maps question ids to titles; unknown or malformed ids are skipped.
func (r *MongoQuestionRepository) GetTitles(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return out, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"title": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var q models.Question
		if err := cursor.Decode(&q); err != nil {
			return nil, err
		}
		out[q.ID.Hex()] = q.Title
	}
	return out, cursor.Err()
}
