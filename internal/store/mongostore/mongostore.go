// Package mongostore implements the persistence gateway on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
)

const (
	UsersCollection = "users"
	LogsCollection  = "system_logs"
)

type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	responses *mongo.Collection
	users     *mongo.Collection
	logs      *mongo.Collection
}

var (
	_ store.Store          = (*Store)(nil)
	_ store.LegacyMigrator = (*Store)(nil)
)

// New wraps an already connected client. Responses live in the named
// collection of database dbName.
func New(client *mongo.Client, dbName, collection string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:    client,
		db:        db,
		responses: db.Collection(collection),
		users:     db.Collection(UsersCollection),
		logs:      db.Collection(LogsCollection),
	}
}

// EnsureIndexes creates the lookup indexes. With uniqueUser the userId
// index is unique, so concurrent first upserts for one user cannot create
// two documents.
func (s *Store) EnsureIndexes(ctx context.Context, uniqueUser bool) error {
	_, err := s.responses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(uniqueUser),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create response indexes: %w", err)
	}

	_, err = s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	_, err = s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create log indexes: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, resp *models.OnboardingResponse) (string, error) {
	res, err := s.responses.InsertOne(ctx, toResponseDoc(resp))
	if err != nil {
		return "", fmt.Errorf("insert onboarding: %w", err)
	}
	return idString(res.InsertedID), nil
}

func (s *Store) Upsert(ctx context.Context, resp *models.OnboardingResponse) (*models.OnboardingResponse, error) {
	filter := bson.M{"userId": resp.UserID}
	update := bson.M{
		"$set": bson.M{
			"username":         resp.Username,
			"questionSet":      resp.QuestionSet,
			"answers":          map[string]any(resp.Answers),
			"formattedAnswers": resp.FormattedAnswers,
			"updatedAt":        resp.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": resp.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc responseDoc
	if err := s.responses.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert onboarding: %w", err)
	}
	m := doc.model()
	return &m, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.OnboardingResponse, error) {
	var doc responseDoc
	err := s.responses.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find onboarding %s: %w", id, err)
	}
	m := doc.model()
	return &m, nil
}

func (s *Store) FindByUser(ctx context.Context, userID string, skip, limit int) ([]models.OnboardingResponse, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := s.responses.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count user onboardings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	out, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]models.OnboardingResponse, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.OnboardingResponse, error) {
	cur, err := s.responses.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find onboardings: %w", err)
	}
	var docs []responseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode onboardings: %w", err)
	}
	out := make([]models.OnboardingResponse, len(docs))
	for i, d := range docs {
		out[i] = d.model()
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.responses.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count onboardings: %w", err)
	}
	return n, nil
}

func (s *Store) CountByAnswer(ctx context.Context, key string, multi bool) ([]models.ValueCount, error) {
	cur, err := s.responses.Aggregate(ctx, countPipeline(key, multi))
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", key, err)
	}
	out := []models.ValueCount{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s counts: %w", key, err)
	}
	return out, nil
}

// countPipeline groups by answers.<key>. Multi-choice answers are unwound
// first so each selected option is counted once per document.
func countPipeline(key string, multi bool) mongo.Pipeline {
	field := "answers." + key
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}}}},
	}
	if multi {
		pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: "$" + field}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	res, err := s.users.InsertOne(ctx, toUserDoc(u))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = idString(res.InsertedID)
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"firebaseUid": uid})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) MarkOnboardingComplete(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"hasCompletedOnboarding": true, "updatedAt": at},
	})
	if err != nil {
		return fmt.Errorf("mark onboarding complete: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) WriteLogs(ctx context.Context, logs []models.SystemLog) error {
	if len(logs) == 0 {
		return nil
	}
	docs := make([]any, len(logs))
	for i := range logs {
		docs[i] = logs[i]
	}
	if _, err := s.logs.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert system logs: %w", err)
	}
	return nil
}

func (s *Store) PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.logs.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("purge system logs: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Describe(ctx context.Context) (*models.DatabaseInfo, error) {
	specs, err := s.db.ListCollectionSpecifications(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	info := &models.DatabaseInfo{
		Driver:      "mongo",
		Database:    s.db.Name(),
		Collections: make([]models.CollectionInfo, 0, len(specs)),
	}
	for _, spec := range specs {
		c := models.CollectionInfo{Name: spec.Name, Type: spec.Type, Count: -1}
		if n, err := s.db.Collection(spec.Name).CountDocuments(ctx, bson.D{}); err == nil {
			c.Count = n
		}
		info.Collections = append(info.Collections, c)
	}
	return info, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) LegacyResponses(ctx context.Context) ([]models.LegacyResponse, error) {
	cur, err := s.responses.Find(ctx, bson.M{"answers": bson.M{"$exists": false}})
	if err != nil {
		return nil, fmt.Errorf("find legacy onboardings: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode legacy onboardings: %w", err)
	}
	out := make([]models.LegacyResponse, 0, len(docs))
	for _, d := range docs {
		raw, _ := plain(d).(map[string]any)
		out = append(out, models.LegacyResponse{ID: idString(d["_id"]), Raw: raw})
	}
	return out, nil
}

// ReplaceLegacy overwrites a legacy document with the canonical layout,
// keeping its _id. All legacy fields are dropped.
func (s *Store) ReplaceLegacy(ctx context.Context, id string, resp *models.OnboardingResponse) error {
	res, err := s.responses.ReplaceOne(ctx, idFilter(id), toResponseDoc(resp))
	if err != nil {
		return fmt.Errorf("replace legacy onboarding %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
