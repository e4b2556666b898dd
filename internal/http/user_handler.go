package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserService interface {
	Register(ctx context.Context, in service.UserInput) (*domain.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.UserInput) (*domain.User, error)
}

type UserHandler struct {
	users         UserService
	timeout       time.Duration
	maxUploadSize int64
	logger        *zap.Logger
}

func NewUserHandler(users UserService, timeout time.Duration, maxUploadSize int64, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:         users,
		timeout:       timeout,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	in, closeFile, ok := h.readUserForm(w, r)
	if !ok {
		return
	}
	defer closeFile()

	user, err := h.users.Register(ctx, in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusCreated, "user created successfully", user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.users.Login(ctx, req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "user login successful", result)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.users.GetProfile(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "user profile details", user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	in, closeFile, ok := h.readUserForm(w, r)
	if !ok {
		return
	}
	defer closeFile()

	user, err := h.users.UpdateProfile(ctx, chi.URLParam(r, "userId"), in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "user profile updated", user)
}

func (h *UserHandler) readUserForm(w http.ResponseWriter, r *http.Request) (service.UserInput, func(), bool) {
	noop := func() {}
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid form body: "+err.Error())
		return service.UserInput{}, noop, false
	}

	address, err := formAddress(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return service.UserInput{}, noop, false
	}

	in := service.UserInput{
		FName:    r.PostFormValue("fname"),
		LName:    r.PostFormValue("lname"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
		Password: r.PostFormValue("password"),
		Address:  address,
	}

	file, closer, err := formFile(r, "profileImage")
	switch {
	case errors.Is(err, errNoFile):
		return in, noop, true
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return service.UserInput{}, noop, false
	}
	in.Image = file
	return in, func() { _ = closer.Close() }, true
}
