package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"realty/api/middleware"
	"realty/api/routes"
	"realty/config"
	"realty/db"
	"realty/services"
)

func main() {
	var configPath string
	var initIndexes bool
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.BoolVar(&initIndexes, "init", false, "Create shard indexes and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Printf("Starting server with %d shards (%s driver)", len(conf.Store.Shards), conf.Store.Driver)

	ctx := context.Background()
	cluster, err := db.Connect(ctx, conf)
	if err != nil {
		panic("Failed to connect to the store: " + err.Error())
	}
	defer cluster.Close(ctx)

	var events services.Publisher
	if conf.RabbitMQ.Enabled {
		publisher, err := services.NewAMQPPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			panic("Failed to connect to RabbitMQ: " + err.Error())
		}
		defer publisher.Close()
		events = publisher
	}

	catalog := services.NewCatalog(cluster.Shards, events)

	if initIndexes {
		if err := catalog.InitIndexes(ctx); err != nil {
			log.Fatalf("Failed to initialize indexes: %v", err)
		}
		log.Println("Indexes initialized on all shards")
		return
	}

	var tokens services.TokenStore
	if conf.Store.Driver == "memory" {
		tokens = services.NewMemoryTokenStore()
	} else {
		tokens, err = services.NewRedisTokenStore(ctx, conf)
		if err != nil {
			panic("Failed to connect to Redis: " + err.Error())
		}
	}
	auth := services.NewAuthService(cluster.Users, tokens, time.Duration(conf.Auth.TokenTTL)*time.Minute)

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("catalog"))

	routes.PublicApi(router, catalog, auth)

	addr := fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port)
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
