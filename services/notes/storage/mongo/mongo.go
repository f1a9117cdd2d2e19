// Package mongo backs the note store with a MongoDB collection. Each note
// is one document {keyPoints, topic, date} with an auto-assigned ObjectID.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/voxnote/backend/services/notes/entity"
)

const collectionName = "notes"

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type noteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	KeyPoints []string           `bson:"keyPoints"`
	Topic     string             `bson:"topic"`
	Date      time.Time          `bson:"date"`
}

func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

func (s *Store) Insert(ctx context.Context, topic string, keyPoints []string) (entity.Note, error) {
	doc := noteDocument{
		KeyPoints: keyPoints,
		Topic:     topic,
		Date:      time.Now().UTC(),
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return entity.Note{}, fmt.Errorf("insert note: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return entity.Note{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return entity.Note{
		ID:        id.Hex(),
		Topic:     doc.Topic,
		KeyPoints: doc.KeyPoints,
		CreatedAt: doc.Date,
	}, nil
}

func (s *Store) List(ctx context.Context) ([]entity.Note, error) {
	cursor, err := s.coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer cursor.Close(ctx)

	var notes []entity.Note
	for cursor.Next(ctx) {
		var doc noteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		notes = append(notes, entity.Note{
			ID:        doc.ID.Hex(),
			Topic:     doc.Topic,
			KeyPoints: doc.KeyPoints,
			CreatedAt: doc.Date,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
