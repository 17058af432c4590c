// internal/app/features/authinfo/handler.go
package authinfo

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/courseportal/internal/app/features/errors"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/app/system/auth"
	"github.com/dalemusser/courseportal/internal/app/system/authz"
	"github.com/dalemusser/courseportal/internal/app/system/inputval"
	"github.com/dalemusser/courseportal/internal/app/system/limits"
	"github.com/dalemusser/courseportal/internal/app/system/ratelimit"
	"github.com/dalemusser/courseportal/internal/app/system/timeouts"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's identity and device records.
type Handler struct {
	Users  *userstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates a new authinfo handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

type identity struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type checkResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          *identity `json:"user,omitempty"`
}

// ServeCheck handles GET /api/auth/check. It never fails: a visitor gets
// {"authenticated": false}.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		render.JSON(w, r, checkResponse{})
		return
	}
	render.JSON(w, r, checkResponse{
		Authenticated: true,
		User:          &identity{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar, Role: u.Role},
	})
}

// ServeUser handles GET /api/auth/user with the stored account, including
// the last sign-in time.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "auth user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Error fetching user")
		return
	}
	render.JSON(w, r, identity{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		LastLogin: u.LastLogin,
	})
}

type deviceInput struct {
	DeviceID   string `json:"deviceId" validate:"omitempty,max=128"`
	DeviceName string `json:"deviceName" validate:"omitempty,max=200"`
	IPAddress  string `json:"ipAddress" validate:"omitempty,max=64"`
}

type deviceResponse struct {
	Message string        `json:"message"`
	Device  models.Device `json:"device"`
}

// HandleDevice handles POST /api/auth/device. A known device id refreshes
// its last access time; an unknown or missing one records a new device.
// The request's client address is used when the body carries none.
func (h *Handler) HandleDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	var in deviceInput
	if err := inputval.DecodeLimit(w, r, &in, limits.MaxSmallJSONBody); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if err := inputval.Struct(in); err != nil {
		h.validationFailed(w, r, err)
		return
	}
	if in.IPAddress == "" {
		in.IPAddress = ratelimit.ClientIP(r)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "upsert device")
	defer cancel()

	d, err := h.Users.UpsertDevice(ctx, id, models.Device{
		DeviceID:   in.DeviceID,
		DeviceName: in.DeviceName,
		IPAddress:  in.IPAddress,
	})
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "upsert device failed", err, "Error updating device information")
		return
	}
	render.JSON(w, r, deviceResponse{Message: "Device information updated", Device: d})
}

// ServeDevices handles GET /api/auth/devices.
func (h *Handler) ServeDevices(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.UserID(r)
	if !ok {
		uierrors.Unauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list devices")
	defer cancel()

	devices, err := h.Users.Devices(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list devices failed", err, "Error fetching devices")
		return
	}
	render.JSON(w, r, devices)
}

func (h *Handler) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	var ve *inputval.ValidationError
	if errors.As(err, &ve) {
		uierrors.Validation(w, r, ve)
		return
	}
	h.ErrLog.LogServerError(w, r, "device input failed", err, "Error updating device information")
}
