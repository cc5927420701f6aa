package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	JourneysCollection   *mongo.Collection
	UserCollection       *mongo.Collection
	ActivitiesCollection *mongo.Collection
	Client               *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	var err error
	ClientOptions := options.Client().ApplyURI(mongoURI)
	Client, err = mongo.Connect(context.TODO(), ClientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	JourneysCollection = Client.Database("wanderdb").Collection("journeys")
	UserCollection = Client.Database("wanderdb").Collection("users")
	ActivitiesCollection = Client.Database("wanderdb").Collection("activities")
}
