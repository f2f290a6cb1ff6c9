package handler

import (
	"log/slog"
	"net/http"
	"time"

	"taskbill/internal/api/util"
	"taskbill/internal/core/model"
	"taskbill/internal/core/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AuthHandler struct {
	approvals     service.ApprovalService
	users         service.UserService
	invitations   service.InvitationService
	provisioning  service.ProvisioningService
	jwt           *util.JWTService
	autoProvision bool
	logger        *slog.Logger
}

func NewAuthHandler(
	approvals service.ApprovalService,
	users service.UserService,
	invitations service.InvitationService,
	provisioning service.ProvisioningService,
	jwt *util.JWTService,
	autoProvision bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		approvals:     approvals,
		users:         users,
		invitations:   invitations,
		provisioning:  provisioning,
		jwt:           jwt,
		autoProvision: autoProvision,
		logger:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        *model.User `json:"user"`
}

type registerResponse struct {
	*service.Registration
	Organization *model.Organization `json:"organization,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}

	reg, err := h.approvals.Register(r.Context(), req)
	if err != nil {
		util.Error(w, r, err)
		return
	}

	resp := registerResponse{Registration: reg}
	if reg.NeedsOrganization && h.autoProvision {
		org, err := h.provisioning.ProvisionFor(r.Context(), reg.User.ID)
		if err != nil {
			h.logger.Error("auto-provisioning failed", "user", reg.User.ID, "error", err)
		} else if org != nil {
			resp.Organization = org
			resp.NeedsOrganization = false
		}
	}
	util.Created(w, r, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, util.ErrInvalidRequest(err))
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		util.Error(w, r, err)
		return
	}

	token, expiresAt, err := h.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, tokenResponse{AccessToken: token, ExpiresAt: expiresAt, User: user})
}

// ValidateInvitation is public so the signup form can show what a link
// grants before an account exists.
func (h *AuthHandler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	v, err := h.invitations.Validate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		util.Error(w, r, err)
		return
	}
	util.JSON(w, r, v)
}
