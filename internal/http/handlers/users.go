package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Registrar interface {
	Register(ctx context.Context, req user.RegisterRequest) (int64, error)
}

type Issuer interface {
	Login(ctx context.Context, req user.LoginRequest) (string, error)
}

type ProfileService interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUserInfo(ctx context.Context, subjectID int64) (user.User, error)
	UpdateUser(ctx context.Context, targetID int64, req user.UpdateRequest) (int64, error)
}

type UsersHandler struct {
	registrar Registrar
	issuer    Issuer
	profiles  ProfileService
	log       *slog.Logger
}

func NewUsersHandler(registrar Registrar, issuer Issuer, profiles ProfileService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		registrar: registrar,
		issuer:    issuer,
		profiles:  profiles,
		log:       log,
	}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates; the welcome mail runs under its own timeout
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	id, err := h.registrar.Register(cctx, req)
	if err != nil {
		RespondAppError(ctx, h.log, "register", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"userId": id})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	token, err := h.issuer.Login(cctx, req)
	if err != nil {
		RespondAppError(ctx, h.log, "login", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.profiles.GetUserInfo(cctx, userID)
	if err != nil {
		RespondAppError(ctx, h.log, "get_user_info", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	targetID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || targetID <= 0 {
		RespondBadRequest(ctx, "user id must be a positive integer", gin.H{"field": "id"})
		return
	}

	var req user.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	id, err := h.profiles.UpdateUser(cctx, targetID, req)
	if err != nil {
		RespondAppError(ctx, h.log, "update_user", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"userId": id})
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.profiles.ListUsers(cctx)
	if err != nil {
		RespondAppError(ctx, h.log, "list_users", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": users,
		"count": len(users),
	})
}
