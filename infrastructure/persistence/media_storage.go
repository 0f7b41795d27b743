package persistence

import (
	"context"
	"time"

	"postqueue/domain/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MediaStorage keeps post media blobs in MongoDB; posts reference them by
// hex object id only.
type MediaStorage struct {
	collection *mongo.Collection
}

type mediaDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Data      []byte        `bson:"data"`
	MimeType  string        `bson:"mime_type"`
	CreatedAt time.Time     `bson:"created_at"`
}

func NewMediaStorage(client *mongo.Client, database string) *MediaStorage {
	return &MediaStorage{collection: client.Database(database).Collection("media")}
}

func (s *MediaStorage) Save(ctx context.Context, media *model.Media) (string, error) {
	doc := mediaDoc{Data: media.Data, MimeType: media.MimeType, CreatedAt: time.Now().UTC()}
	res, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid := res.InsertedID.(bson.ObjectID)
	return oid.Hex(), nil
}

func (s *MediaStorage) Get(ctx context.Context, ref string) (*model.Media, error) {
	oid, err := bson.ObjectIDFromHex(ref)
	if err != nil {
		return nil, err
	}
	var doc mediaDoc
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, err
	}
	return &model.Media{Data: doc.Data, MimeType: doc.MimeType}, nil
}

func (s *MediaStorage) Delete(ctx context.Context, ref string) error {
	oid, err := bson.ObjectIDFromHex(ref)
	if err != nil {
		return err
	}
	_, err = s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
