// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is an authenticated identity. Students get a separate Student record
// the first time they need one.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoogleID  string             `bson:"google_id,omitempty" json:"-"`
	Email     string             `bson:"email" json:"email"` // lowercase
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role      string             `bson:"role" json:"role"` // student | admin
	IsActive  bool               `bson:"is_active" json:"isActive"`
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	Devices   []Device           `bson:"devices,omitempty" json:"devices,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Device is a client the user has signed in from.
type Device struct {
	DeviceID   string    `bson:"device_id" json:"deviceId"`
	DeviceName string    `bson:"device_name,omitempty" json:"deviceName,omitempty"`
	LastAccess time.Time `bson:"last_access" json:"lastAccess"`
	IPAddress  string    `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
}
