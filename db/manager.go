package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"realty/config"
)

// Cluster bundles the fixed shard list and the unsharded user store. It is
// constructed once at startup and handed to whoever needs storage; there is
// no package-level client.
type Cluster struct {
	Shards []Shard
	Users  UserStore

	client *mongo.Client
}

// Connect builds a Cluster from the configuration. With the "memory" driver
// no external services are touched.
func Connect(ctx context.Context, conf *config.ConfigSchema) (*Cluster, error) {
	switch conf.Store.Driver {
	case "memory":
		cluster := &Cluster{Users: NewMemoryUserStore()}
		for _, name := range conf.Store.Shards {
			cluster.Shards = append(cluster.Shards, NewMemoryShard(name))
		}
		return cluster, nil
	case "mongo":
		// fallthrough below
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}

	if conf.Store.URI == "" {
		return nil, fmt.Errorf("store.uri is required for the mongo driver")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(conf.Store.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Printf("connected to mongo, %d shards configured", len(conf.Store.Shards))

	cluster := &Cluster{
		client: client,
		Users:  NewMongoUserStore(client, conf.Auth.Database, conf.Auth.Collection),
	}
	for _, name := range conf.Store.Shards {
		cluster.Shards = append(cluster.Shards, NewMongoShard(client, name))
	}
	return cluster, nil
}

func (c *Cluster) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
