package db

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"realty/models"
)

// Filter describes a shard query. CustomID is an exact match and, when set,
// wins over everything else; the remaining fields are case-insensitive
// substring filters combined with AND.
type Filter struct {
	CustomID string
	City     string
	State    string
	Type     string
	Address  string
}

// Shard is one independent document store holding a partition of the
// catalog. Implementations: mongoShard (one database per shard) and
// MemoryShard (tests and the "memory" driver).
type Shard interface {
	Name() string
	Insert(ctx context.Context, p models.Property) error
	FindByID(ctx context.Context, customID string) (*models.Property, error)
	Find(ctx context.Context, f Filter) ([]models.Property, error)
	// Update applies a keyed partial update; matched reports whether any
	// document with the given custom_id existed on this shard.
	Update(ctx context.Context, customID string, fields map[string]interface{}) (matched bool, err error)
	Delete(ctx context.Context, customID string) (deleted bool, err error)
	EnsureIndexes(ctx context.Context) error
}

// indexFields are the commonly queried fields indexed on every shard.
var indexFields = []string{"city", "state", "type", "address", "custom_id"}

type mongoShard struct {
	name       string
	collection *mongo.Collection
}

// NewMongoShard wraps one database of the given client as a shard. The shard
// name doubles as the database name.
func NewMongoShard(client *mongo.Client, name string) Shard {
	return &mongoShard{
		name:       name,
		collection: client.Database(name).Collection(models.Property{}.Collection()),
	}
}

func (s *mongoShard) Name() string {
	return s.name
}

func (s *mongoShard) Insert(ctx context.Context, p models.Property) error {
	p.ID = primitive.NilObjectID
	_, err := s.collection.InsertOne(ctx, p)
	return err
}

func (s *mongoShard) FindByID(ctx context.Context, customID string) (*models.Property, error) {
	var p models.Property
	err := s.collection.FindOne(ctx, bson.M{"custom_id": customID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *mongoShard) Find(ctx context.Context, f Filter) ([]models.Property, error) {
	query := bson.M{}
	if f.CustomID != "" {
		query["custom_id"] = f.CustomID
	} else {
		if f.City != "" {
			query["city"] = containsPattern(f.City)
		}
		if f.State != "" {
			query["state"] = containsPattern(f.State)
		}
		if f.Type != "" {
			query["type"] = containsPattern(f.Type)
		}
		if f.Address != "" {
			query["address"] = containsPattern(f.Address)
		}
	}

	cursor, err := s.collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.Property
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *mongoShard) Update(ctx context.Context, customID string, fields map[string]interface{}) (bool, error) {
	result, err := s.collection.UpdateOne(ctx, bson.M{"custom_id": customID}, bson.M{"$set": fields})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (s *mongoShard) Delete(ctx context.Context, customID string) (bool, error) {
	result, err := s.collection.DeleteOne(ctx, bson.M{"custom_id": customID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (s *mongoShard) EnsureIndexes(ctx context.Context) error {
	for _, field := range indexFields {
		_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create index %q on %s: %w", field, s.name, err)
		}
	}
	return nil
}

// containsPattern builds a case-insensitive substring match. The input is
// quoted so user text is never interpreted as a regex.
func containsPattern(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}
