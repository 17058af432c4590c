// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/courseportal/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Tasks runs background maintenance jobs between Startup and Shutdown.
	Tasks *tasks.Runner
}
