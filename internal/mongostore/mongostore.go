// Package mongostore keeps exam content, sessions and writing submissions
// in MongoDB. It satisfies the same repository contract as the SQL store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/model"
)

var _ exam.Repository = (*Store)(nil)

// Store wraps the collections of one database.
type Store struct {
	client   *mongo.Client
	tests    *mongo.Collection
	exams    *mongo.Collection
	sessions *mongo.Collection
	writing  *mongo.Collection
	counters *mongo.Collection
}

// Connect dials uri and opens database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

// New returns a store over db without owning its client.
func New(db *mongo.Database) *Store {
	return &Store{
		tests:    db.Collection("tests"),
		exams:    db.Collection("exams"),
		sessions: db.Collection("exam_sessions"),
		writing:  db.Collection("writing_submissions"),
		counters: db.Collection("counters"),
	}
}

// EnsureIndexes creates the indexes queries rely on. At most one
// in-progress session may exist per candidate and exam.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "exam_id", Value: 1}, {Key: "user.national_id", Value: 1}},
			Options: options.Index().
				SetName("open_session").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(model.StatusInProgress)}),
		},
		{Keys: bson.D{{Key: "exam_id", Value: 1}, {Key: "started_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}
	_, err = s.writing.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "marking_status", Value: 1}, {Key: "submitted_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create writing index: %w", err)
	}
	return nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client if the store owns it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any, what, id string) (T, error) {
	var v T
	err := col.FindOne(ctx, filter).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return v, fmt.Errorf("%s %s: %w", what, id, exam.ErrNotFound)
	}
	if err != nil {
		return v, fmt.Errorf("get %s %s: %w", what, id, err)
	}
	return v, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

func upsert(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	_, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

// PutTest inserts or replaces a test.
func (s *Store) PutTest(ctx context.Context, t model.Test) error {
	if err := upsert(ctx, s.tests, t.ID, t); err != nil {
		return fmt.Errorf("put test %s: %w", t.ID, err)
	}
	return nil
}

// GetTest returns a test by ID.
func (s *Store) GetTest(ctx context.Context, id string) (model.Test, error) {
	return findOne[model.Test](ctx, s.tests, bson.M{"_id": id}, "test", id)
}

// ListTests returns all tests ordered by ID.
func (s *Store) ListTests(ctx context.Context) ([]model.Test, error) {
	tests, err := findAll[model.Test](ctx, s.tests, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// PutExam inserts or replaces an exam.
func (s *Store) PutExam(ctx context.Context, e model.Exam) error {
	if err := upsert(ctx, s.exams, e.ID, e); err != nil {
		return fmt.Errorf("put exam %s: %w", e.ID, err)
	}
	return nil
}

// CreateExam inserts an exam. A taken ID yields exam.ErrConflict.
func (s *Store) CreateExam(ctx context.Context, e model.Exam) error {
	_, err := s.exams.InsertOne(ctx, e)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("create exam %s: %w", e.ID, exam.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create exam %s: %w", e.ID, err)
	}
	return nil
}

// ListExams returns all exams ordered by ID.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	exams, err := findAll[model.Exam](ctx, s.exams, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(ctx context.Context, id string) (model.Exam, error) {
	return findOne[model.Exam](ctx, s.exams, bson.M{"_id": id}, "exam", id)
}

// NextSequence atomically increments and returns the counter name.
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return doc.Value, nil
}
