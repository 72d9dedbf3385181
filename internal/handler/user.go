package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// UserHandler exposes admin-only account management.  Regular account
// flows (register, login, profile) live in AuthHandler.
type UserHandler struct {
	Cfg   *config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg *config.Config, users *repository.UserRepo) *UserHandler {
	if cfg == nil || users == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users}
}

type userUpdateReq struct {
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password string  `json:"password"`
}

type userResp struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role"`
	IsActive bool    `json:"is_active"`
}

func toUserResp(u *model.User) userResp {
	return userResp{
		ID: u.ID, Email: u.Email, FullName: u.FullName,
		Phone: u.Phone, Role: u.Role, IsActive: u.IsActive,
	}
}

// List handles GET /v1/admin/users with optional ?role= and ?active=
// filters.
func (h *UserHandler) List(c echo.Context) error {
	var f repository.UserFilter
	for _, r := range c.QueryParams()["role"] {
		if !model.ValidRole(r) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		f.Roles = append(f.Roles, r)
	}
	if v := c.QueryParam("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "active must be true or false"})
		}
		f.IsActive = &b
	}

	list, err := h.Users.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userResp, 0, len(list))
	for i := range list {
		out = append(out, toUserResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/admin/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toUserResp(&u))
}

// Update handles PUT /v1/admin/users/:id.  Absent fields keep their
// current value; a non-empty password resets the credential.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	current, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	email := current.Email
	if v := strings.TrimSpace(req.Email); v != "" {
		email = v
	}
	fullName := current.FullName
	if v := strings.TrimSpace(req.FullName); v != "" {
		fullName = v
	}
	phone := current.Phone
	if req.Phone != nil {
		phone = req.Phone
	}
	role := current.Role
	if req.Role != "" {
		if !model.ValidRole(req.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		role = req.Role
	}
	isActive := current.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	if err := h.Users.Update(ctx, id, email, fullName, phone, role, isActive); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
		}
		if err := h.Users.UpdatePassword(ctx, id, req.Password, h.Cfg.BcryptCost); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toUserResp(&u))
}

// Delete handles DELETE /v1/admin/users/:id.  Admins cannot delete
// their own account while logged in with it.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if uid, err := getUserID(c); err == nil && uid == id {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete own account"})
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
