// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/courseportal/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Servers without collMod validator support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("students", studentsSchema())
	ensure("courses", coursesSchema())

	// No validators; created up front so transactions never have to.
	ensure("counters", nil)
	ensure("oauth_states", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf(values []string) bson.M {
	a := make(bson.A, 0, len(values))
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

var (
	nonEmpty = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	integer  = bson.A{"int", "long"}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "role", "is_active"},
			"properties": bson.M{
				"email":     nonEmpty,
				"name":      bson.M{"bsonType": "string"},
				"google_id": bson.M{"bsonType": "string"},
				"role":      enumOf([]string{models.RoleStudent, models.RoleAdmin}),
				"is_active": bson.M{"bsonType": "bool"},
				"devices":   bson.M{"bsonType": "array"},
			},
		},
	}
}

func studentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "student_id", "academic_info", "enrolled_courses"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"student_id": bson.M{"bsonType": "string", "pattern": "^STU[0-9]{2}[0-9]{4,}$"},
				"academic_info": bson.M{
					"bsonType": "object",
					"required": bson.A{"department"},
					"properties": bson.M{
						"department": enumOf(models.Departments),
						"cgpa":       bson.M{"bsonType": "number", "minimum": 0, "maximum": 10},
					},
				},
				"enrolled_courses": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"course_id", "status"},
						"properties": bson.M{
							"course_id": bson.M{"bsonType": "objectId"},
							"status":    enumOf(models.EnrollmentStatuses),
						},
					},
				},
			},
		},
	}
}

// coursesSchema also pins enrolled to [0, capacity] so no write path can
// leave the counter outside its bounds.
func coursesSchema() bson.M {
	return bson.M{
		"$and": bson.A{
			bson.M{"$jsonSchema": bson.M{
				"bsonType": "object",
				"required": bson.A{"course_code", "title", "department", "category", "credits", "capacity", "enrolled", "is_active"},
				"properties": bson.M{
					"course_code": nonEmpty,
					"title":       nonEmpty,
					"department":  enumOf(models.Departments),
					"category":    enumOf(models.Categories),
					"level":       enumOf(models.Levels),
					"credits":     bson.M{"bsonType": integer, "minimum": 1, "maximum": 6},
					"capacity":    bson.M{"bsonType": integer, "minimum": 1},
					"enrolled":    bson.M{"bsonType": integer, "minimum": 0},
					"fees":        bson.M{"bsonType": "number", "minimum": 0},
					"is_active":   bson.M{"bsonType": "bool"},
				},
			}},
			bson.M{"$expr": bson.M{"$lte": bson.A{"$enrolled", "$capacity"}}},
		},
	}
}
