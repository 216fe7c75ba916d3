package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"userhub/internal/delivery/api/response"
	"userhub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for the user CRUD handlers.
type UserHandler struct {
	uc usecase.UserUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// CreateUser handles POST /users.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var input usecase.CreateUserInput
	if err := c.Bind(&input); err != nil {
		return bindError(err, "invalid user input")
	}

	user, err := h.uc.Create(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, user)
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	output, err := h.uc.List(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.List(c, len(output.Users), output.Users)
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user)
}

// UpdateUser handles PATCH /users/:id.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err, "invalid user update")
	}

	user, err := h.uc.Update(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}

// updateUserRequest is the PATCH body. Age distinguishes an absent field from an explicit null.
type updateUserRequest struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Age      nullableInt `json:"age"`
}

func (r *updateUserRequest) toInput() *usecase.UpdateUserInput {
	input := &usecase.UpdateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
	switch {
	case r.Age.Null:
		input.ClearAge = true
	case r.Age.Set:
		age := r.Age.Value
		input.Age = &age
	}

	return input
}

// nullableInt records whether a JSON field was present and whether it was null.
type nullableInt struct {
	Set   bool
	Null  bool
	Value int
}

func (n *nullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Null = true

		return nil
	}

	return json.Unmarshal(data, &n.Value)
}
