// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// Runner executes fn as one unit of work.
//
// The Mongo implementation runs fn inside a multi-document transaction when the
// deployment supports one. Callers must keep fn correct without a transaction
// too (compensating writes on failure), because standalone servers fall back to
// running fn directly.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Mongo is a Runner backed by a database's client.
type Mongo struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewMongo returns a Runner for db.
func NewMongo(db *mongo.Database, logger *zap.Logger) *Mongo {
	return &Mongo{DB: db, Log: logger}
}

// Run implements Runner.
func (m *Mongo) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, m.DB, m.Log, fn)
}

// Run executes fn inside a transaction on db's client. If the server does not
// support transactions (standalone mongod), fn runs without one.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if db == nil {
		return fn(ctx)
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil && IsNotSupported(err) {
		// The first write of an unsupported transaction fails, so nothing
		// was persisted and fn can run again on its own.
		if log != nil {
			log.Debug("transactions unavailable; running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the deployment cannot run
// transactions or sessions (standalone server, illegal operation).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
