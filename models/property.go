package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	TypeSale = "sale"
	TypeRent = "rent"
)

// Property - a single listing document as stored in a shard's "properties"
// collection. CustomID is the derived partition key and the only global
// identity; the mongo _id is per-shard and never used to address a record.
type Property struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Address       string             `bson:"address" json:"address"`
	City          string             `bson:"city" json:"city"`
	State         string             `bson:"state" json:"state"`
	ZipCode       int                `bson:"zip_code" json:"zip_code"`
	Price         float64            `bson:"price" json:"price"`
	Bedrooms      int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms     float64            `bson:"bathrooms" json:"bathrooms"`
	SquareFootage int                `bson:"square_footage" json:"square_footage"`
	Type          string             `bson:"type" json:"type"`
	DateListed    string             `bson:"date_listed" json:"date_listed"`
	Description   string             `bson:"description" json:"description"`
	Images        []string           `bson:"images" json:"images"`
	CustomID      string             `bson:"custom_id" json:"custom_id"`
	CreatedBy     string             `bson:"created_by" json:"created_by"`

	// SourceDB is computed at search time: the shards the record was
	// actually found in. Never persisted.
	SourceDB []string `bson:"-" json:"source_db,omitempty"`
}

func (Property) Collection() string {
	return "properties"
}
