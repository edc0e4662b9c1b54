package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User - an account document in the unsharded authentication collection.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Username       string             `bson:"username" json:"username"`
	HashedPassword string             `bson:"hashed_password" json:"-"`
}
