package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// AuthHandler 登录/登出/当前会话
type AuthHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewAuthHandler(st *store.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: st, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 明文比对 email/password，成功后写入会话
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing credentials"))
		return
	}

	u, ok, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Login failed", zap.String("email", req.Email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to save session"))
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("invalid credentials"))
		return
	}
	h.logger.Info("User logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	writeJSON(w, http.StatusOK, Ok(newUserView(u)))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to clear session"))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	u, ok := h.store.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("not logged in"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(newUserView(u)))
}
