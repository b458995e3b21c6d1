package catalog

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

const (
	defaultMongoDatabase = "cleaner"
	mongoCollection      = "datasets"
)

// MongoStore keeps one document per dataset, keyed by _id = name.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and uses database (default "cleaner").
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storageError(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageError(err, "failed to ping mongodb")
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(mongoCollection),
	}, nil
}

func (s *MongoStore) Put(ctx context.Context, ds *models.Dataset) error {
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": ds.Name}, ds, options.Replace().SetUpsert(true))
	if err != nil {
		return storageError(err, "failed to upsert dataset")
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*models.Dataset, error) {
	var ds models.Dataset
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&ds)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound("dataset", name)
	}
	if err != nil {
		return nil, storageError(err, "failed to read dataset")
	}
	return &ds, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*models.Dataset, error) {
	cursor, err := s.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageError(err, "failed to list datasets")
	}
	var out []*models.Dataset
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storageError(err, "failed to decode datasets")
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
