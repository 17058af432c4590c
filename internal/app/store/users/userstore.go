package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"admin"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByGoogleID loads the user linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	if googleID == "" {
		return models.User{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByIDs loads the users with the given ids; unknown ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findOne(ctx context.Context, q bson.M) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, q).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	switch u.Role {
	case models.RoleStudent, models.RoleAdmin:
	default:
		return models.User{}, errBadRole
	}
	u.IsActive = true

	now := time.Now().UTC()
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

// LinkGoogle attaches a Google account (and avatar) to an existing user that
// first signed up with the same email.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID, avatar string) (models.User, error) {
	set := bson.M{"google_id": googleID, "updated_at": time.Now().UTC()}
	if avatar != "" {
		set["avatar"] = avatar
	}
	return s.updateOne(ctx, id, bson.M{"$set": set})
}

// TouchLogin records a successful sign-in.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertDevice records access from a device, refreshing an existing entry or
// appending a new one. An empty DeviceID gets a generated one. The stored
// device is returned.
func (s *Store) UpsertDevice(ctx context.Context, id primitive.ObjectID, d models.Device) (models.Device, error) {
	if d.DeviceID == "" {
		d.DeviceID = uuid.NewString()
	}
	d.LastAccess = time.Now().UTC()

	// Refresh in place when the device is already known.
	set := bson.M{
		"devices.$.last_access": d.LastAccess,
		"devices.$.ip_address":  d.IPAddress,
		"updated_at":            d.LastAccess,
	}
	if d.DeviceName != "" {
		set["devices.$.device_name"] = d.DeviceName
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "devices.device_id": d.DeviceID},
		bson.M{"$set": set},
	)
	if err != nil {
		return models.Device{}, err
	}
	if res.MatchedCount > 0 {
		return d, nil
	}

	res, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id, "devices.device_id": bson.M{"$ne": d.DeviceID}},
		bson.M{
			"$push": bson.M{"devices": d},
			"$set":  bson.M{"updated_at": d.LastAccess},
		},
	)
	if err != nil {
		return models.Device{}, err
	}
	if res.MatchedCount == 0 {
		u, err := s.GetByID(ctx, id)
		if err != nil {
			return models.Device{}, err
		}
		// Lost a race with a concurrent insert of the same device.
		for _, existing := range u.Devices {
			if existing.DeviceID == d.DeviceID {
				return existing, nil
			}
		}
		return models.Device{}, ErrNotFound
	}
	return d, nil
}

// Devices returns the devices recorded for a user.
func (s *Store) Devices(ctx context.Context, id primitive.ObjectID) ([]models.Device, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"devices": 1})).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Devices == nil {
		return []models.Device{}, nil
	}
	return u.Devices, nil
}

// PromoteToAdmin sets the admin role on the user with the given email.
// Returns ErrNotFound when no such user exists yet.
func (s *Store) PromoteToAdmin(ctx context.Context, email string) (models.User, error) {
	var out models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"role": models.RoleAdmin, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

// SetActive enables or disables a user account. Disabled users are signed
// out on their next request.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.User, error) {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}})
}

// Count returns the number of users, optionally restricted to active ones.
func (s *Store) Count(ctx context.Context, activeOnly bool) (int64, error) {
	q := bson.M{}
	if activeOnly {
		q["is_active"] = true
	}
	return s.c.CountDocuments(ctx, q)
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) (models.User, error) {
	var out models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}
