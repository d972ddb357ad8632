package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ovaphlow/pitchfork/service-registration/internal/user/entity"
)

// MongoRepo stores profiles in a collection using the subject id as _id,
// so the collection's built-in unique _id index rejects duplicates.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo { return &MongoRepo{col: col} }

type profileDoc struct {
	SubjectID string    `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	Email     string    `bson:"email"`
	Group     string    `bson:"group"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *MongoRepo) Get(ctx context.Context, subjectID string) (*entity.Profile, error) {
	var doc profileDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": subjectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity.Profile{
		SubjectID: doc.SubjectID,
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		Email:     doc.Email,
		Group:     doc.Group,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (r *MongoRepo) Insert(ctx context.Context, p *entity.Profile) error {
	doc := profileDoc{
		SubjectID: p.SubjectID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Group:     p.Group,
		CreatedAt: p.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
