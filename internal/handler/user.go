package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/avetra/sales-api/internal/domain/user"
)

// userRequest is the wire shape of a create or replace call. Password is
// required on create and optional on replace; Status is honored only on
// replace.
type userRequest struct {
	Email    string        `json:"email"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Name     user.Name     `json:"name"`
	Address  *user.Address `json:"address"`
	Phone    string        `json:"phone"`
	Status   string        `json:"status"`
	Role     string        `json:"role"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapUserError(w, err)
		return
	}

	u, err := h.users.Create(r.Context(), user.CreateInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		h.mapUserError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, u)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "user id must be a UUID")
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.mapUserError(w, err)
		return
	}

	h.respond(w, http.StatusOK, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "user id must be a UUID")
		return
	}

	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapUserError(w, err)
		return
	}

	u, err := h.users.Update(r.Context(), id, user.UpdateInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Status:   req.Status,
		Role:     req.Role,
	})
	if err != nil {
		h.mapUserError(w, err)
		return
	}

	h.respond(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "user id must be a UUID")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		h.mapUserError(w, err)
		return
	}

	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	req, err := parsePage(r)
	if err != nil {
		h.mapUserError(w, err)
		return
	}

	params := user.FilterParams{
		Email:     trimParam(r, "email"),
		Username:  trimParam(r, "username"),
		Status:    trimParam(r, "status"),
		Role:      trimParam(r, "role"),
		FirstName: trimParam(r, "firstName"),
		LastName:  trimParam(r, "lastName"),
		City:      trimParam(r, "city"),
	}

	page, err := h.users.List(r.Context(), params, req)
	if err != nil {
		h.mapUserError(w, err)
		return
	}

	h.respond(w, http.StatusOK, page)
}

// mapUserError converts user domain errors to HTTP error responses, deferring
// to the shared mapper for request-level errors.
func (h *Handler) mapUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, user.ErrVersionConflict):
		h.respondError(w, http.StatusConflict, "user was modified concurrently, retry")
		return
	}

	var invalidArg *user.InvalidArgumentError
	if errors.As(err, &invalidArg) {
		h.respondError(w, http.StatusBadRequest, invalidArg.Error())
		return
	}

	h.mapSaleError(w, err)
}
