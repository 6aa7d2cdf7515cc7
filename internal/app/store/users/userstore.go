package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/counselhub/internal/app/system/normalize"
	"github.com/dalemusser/counselhub/internal/app/system/status"
	"github.com/dalemusser/counselhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "leader"|"admin"|"counselor"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod  = errors.New(`auth method must be "internal"|"google"`)
	errNoPassword     = errors.New("internal-auth users require a password")
)

// bcryptCost is the work factor for password hashes.
const bcryptCost = 12

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// password is the plaintext password for internal-auth accounts; it must be
// empty for google accounts and non-empty for internal ones.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.AuthMethod = normalize.AuthMethod(u.AuthMethod)
	if u.Status == "" {
		u.Status = status.Active
	}

	switch u.Role {
	case "leader", "admin", "counselor":
		// ok
	default:
		return models.User{}, errBadRole
	}

	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	switch u.AuthMethod {
	case "internal":
		if password == "" {
			return models.User{}, errNoPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	case "google":
		u.PasswordHash = ""
	default:
		return models.User{}, errBadAuthMethod
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// VerifyPassword checks a plaintext password against the user's stored hash.
func VerifyPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Update modifies a user's name, email, and role.
// Returns ErrDuplicateEmail if the email already exists for another user.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, fullName, email, role string) error {
	switch role {
	case "leader", "admin", "counselor":
	default:
		return errBadRole
	}

	fullName = normalize.Name(fullName)
	set := bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"email":        normalize.Email(email),
		"role":         role,
		"updated_at":   time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// SetPassword replaces the user's password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": string(hash),
		"updated_at":    time.Now(),
	}})
	return err
}

// setStatus flips the account status and stamps when it changed.
func (s *Store) setStatus(ctx context.Context, id primitive.ObjectID, to string) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":            to,
		"status_changed_at": now,
		"updated_at":        now,
	}})
	return err
}

// Deactivate disables a user account. Accounts are never hard-deleted; a
// disabled user cannot sign in but their history stays intact.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, status.Disabled)
}

// Reactivate re-enables a disabled user account.
func (s *Store) Reactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.setStatus(ctx, id, status.Active)
}

// List returns users filtered by optional role and status, sorted by folded
// name with _id as tiebreak.
func (s *Store) List(ctx context.Context, role, statusFilter string) ([]models.User, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	if statusFilter != "" {
		filter["status"] = statusFilter
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "full_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil // found another user with this email
	}
	if err == mongo.ErrNoDocuments {
		return false, nil // no duplicate
	}
	return false, err // actual error
}
