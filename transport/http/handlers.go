package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/service"
)

// AdmissionHandlers contains the HTTP handlers for the admission endpoints.
type AdmissionHandlers struct {
	admission *service.AdmissionService
}

// NewAdmissionHandlers creates new admission handlers.
func NewAdmissionHandlers(admission *service.AdmissionService) *AdmissionHandlers {
	return &AdmissionHandlers{admission: admission}
}

// Challenge hands out a proof-of-work challenge for registration. The
// difficulty is a server-side setting; anything the client sends for it is
// ignored, otherwise registrants could price their own admission.
func (h *AdmissionHandlers) Challenge(c *gin.Context) {
	challenge, err := h.admission.RequestChallenge(c.Request.Context())
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      challenge.Token,
		"challenge":  challenge.Challenge,
		"difficulty": challenge.Difficulty,
		"target":     h.admission.Target(challenge.Difficulty),
	})
}

// Register completes a proof-of-work registration.
func (h *AdmissionHandlers) Register(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token query parameter is required"})
		return
	}

	var req struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Email     string `json:"email"`
		FullName  string `json:"full_name"`
		PublicKey string `json:"public_key"`
		Nonce     string `json:"nonce" binding:"required"`
		Hash      string `json:"hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.admission.CompleteRegistration(c.Request.Context(), token, service.Registration{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FullName:  req.FullName,
		PublicKey: req.PublicKey,
		Nonce:     req.Nonce,
		Hash:      req.Hash,
	})
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}

	body := gin.H{
		"username":   result.Account.Username,
		"public_key": result.Account.PublicKey,
		"active":     result.Account.Active,
		"created_at": result.Account.CreatedAt,
	}
	if result.Warning != nil {
		body["warning"] = "account activated, activation event not published"
	}
	c.JSON(http.StatusCreated, body)
}

// OpenSession opens a signature challenge-response session.
func (h *AdmissionHandlers) OpenSession(c *gin.Context) {
	var req struct {
		PublicKey string `json:"public_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.admission.RequestSession(c.Request.Context(), req.PublicKey)
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"challenge":  session.Challenge,
	})
}

// SubmitProof verifies a signature over a session's challenge string.
func (h *AdmissionHandlers) SubmitProof(c *gin.Context) {
	var req struct {
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature must be base64"})
		return
	}

	result, err := h.admission.SubmitSignature(c.Request.Context(), c.Param("id"), signature)
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}

	body := gin.H{"verified": true, "public_key": result.PublicKey}
	if result.Warning != nil {
		body["warning"] = "session verified, verification event not published"
	}
	c.JSON(http.StatusOK, body)
}

// SessionStatus reports whether a session has been verified.
func (h *AdmissionHandlers) SessionStatus(c *gin.Context) {
	verified, err := h.admission.CheckSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

// Login authenticates by username and password and mints a bearer
// credential.
func (h *AdmissionHandlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	resp, err := h.admission.PasswordLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithAdmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": resp.AccessToken,
		"token_type":   resp.TokenType,
		"expires_in":   resp.ExpiresIn,
	})
}

// Me returns the identity established by the bearer middleware.
func (h *AdmissionHandlers) Me(c *gin.Context) {
	username, exists := c.Get(contextKeyUsername)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// Authorize confirms the bearer credential was accepted.
func (h *AdmissionHandlers) Authorize(c *gin.Context) {
	username, exists := c.Get(contextKeyUsername)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorized": true, "username": username})
}

// abortWithAdmissionError translates the admission error taxonomy into
// HTTP outcomes. Clients rely on the split: expired means "start over",
// invalid proof or signature means "retry the same challenge", malformed
// input means "do not retry".
func abortWithAdmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidToken):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or consumed challenge token"})
	case errors.Is(err, core.ErrChallengeExpired):
		c.JSON(http.StatusGone, gin.H{"error": "challenge expired, request a new one"})
	case errors.Is(err, core.ErrInvalidProof):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "proof of work rejected"})
	case errors.Is(err, core.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, core.ErrSessionExpired):
		c.JSON(http.StatusGone, gin.H{"error": "session expired, open a new one"})
	case errors.Is(err, core.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
	case errors.Is(err, core.ErrMalformedKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed public key"})
	case errors.Is(err, core.ErrCredentialExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credential expired"})
	case errors.Is(err, core.ErrCredentialInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
	case errors.Is(err, core.ErrAccountExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, core.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	case errors.Is(err, core.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not active"})
	case errors.Is(err, core.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
