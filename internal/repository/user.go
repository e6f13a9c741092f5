package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/todoapp/todoapp-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository handles user persistence operations.
type UserRepository struct {
	col *mongo.Collection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	if db == nil {
		return &UserRepository{}
	}
	return &UserRepository{col: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	return nil
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Tokens == nil {
		user.Tokens = []model.Token{}
	}

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByToken retrieves the user with the given ID only while token is still
// listed on the user for the given access purpose.
func (r *UserRepository) FindByToken(ctx context.Context, id primitive.ObjectID, access, token string) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"_id": id,
		"tokens": bson.M{"$elemMatch": bson.M{
			"access": access,
			"token":  token,
		}},
	})
}

// PushToken appends token to the user's token list.
func (r *UserRepository) PushToken(ctx context.Context, id primitive.ObjectID, token model.Token) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"tokens": token}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// PullToken removes every entry of token from the user's token list.
// Removing a token that is not listed is not an error.
func (r *UserRepository) PullToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}},
	)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	user := &model.User{}
	if err := r.col.FindOne(ctx, filter).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
