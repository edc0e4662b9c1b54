package db

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"realty/models"
)

// UserStore is the unsharded authentication collection.
type UserStore interface {
	// FindUser returns nil without error when the username is unknown.
	FindUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) error
}

type mongoUserStore struct {
	collection *mongo.Collection
}

func NewMongoUserStore(client *mongo.Client, database, collection string) UserStore {
	return &mongoUserStore{collection: client.Database(database).Collection(collection)}
}

func (s *mongoUserStore) FindUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.collection.InsertOne(ctx, user)
	return err
}

// MemoryUserStore backs the "memory" driver and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) FindUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[username]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = user
	return nil
}
