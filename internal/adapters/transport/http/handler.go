package http

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/user-service/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	lg "github.com/Miraines/MoonyAndStarry/user-service/internal/infra/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgRegistrationFailed = "registration failed"
	msgInternal           = "internal server error"
)

type Handler struct {
	svc appsvc.Service
	v   *validator.Validate
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, v *validator.Validate, log *zap.Logger) *Handler {
	return &Handler{svc: svc, v: v, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.v.Struct(body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.Describe(err)})
		return
	}
	h.log.Info("/auth/registration", lg.Fingerprint("user", body.Username))

	sess, err := h.svc.Register(c.Request.Context(), model.Registration{
		Username: body.Username,
		FullName: body.FullName,
		Password: body.Password,
	})
	if err != nil {
		h.handleError(c, err, msgRegistrationFailed)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: sess.AccessToken})
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.v.Struct(body); err != nil {
		// malformed credentials get the same answer as wrong ones
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
		return
	}
	h.log.Info("/auth/login", lg.Fingerprint("user", body.Username))

	sess, err := h.svc.Login(c.Request.Context(), model.Credentials{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		h.handleError(c, err, msgInternal)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: sess.AccessToken})
}

func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := h.svc.GetProfile(c.Request.Context(), claims.Username)
	if err != nil {
		h.handleError(c, err, msgInternal)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileResponse{ID: id.ID, Username: id.Username, FullName: id.FullName})
}

// handleError maps service errors to responses. Unexpected errors are
// recorded on the context for the request logger and answered with fallback.
func (h *Handler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case authErrors.IsUnauthorized(err), authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	case authErrors.IsConflict(err):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: authErrors.ErrConflict.Error()})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case authErrors.IsCreateFailed(err):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msgRegistrationFailed})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback})
	}
}
