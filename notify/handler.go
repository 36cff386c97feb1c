package notify

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerificationPath is the route served by Register.
const VerificationPath = "/send-verification-code"

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerificationHandler serves verification-code emails.
type VerificationHandler struct {
	sender Sender
	logger *slog.Logger
}

// NewVerificationHandler creates a handler that delivers through sender.
func NewVerificationHandler(sender Sender, logger *slog.Logger) *VerificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationHandler{sender: sender, logger: logger.With("component", "notify")}
}

// Register mounts the handler on r.
func (h *VerificationHandler) Register(r gin.IRoutes) {
	r.POST(VerificationPath, h.Handle)
}

// Handle validates the request, renders the email and sends it.
func (h *VerificationHandler) Handle(c *gin.Context) {
	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: "request body must be JSON with email and code"})
		return
	}
	if err := req.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}

	msg, err := VerificationMessage(req)
	if err != nil {
		h.logger.Error("failed to render verification email", "err", err)
		c.JSON(http.StatusInternalServerError, response{Error: "failed to render email"})
		return
	}

	if err := h.sender.Send(c.Request.Context(), msg); err != nil {
		h.logger.Error("failed to send verification email", "err", err)
		status := http.StatusBadGateway
		if errors.Is(err, ErrSenderNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response{Error: "failed to send verification email"})
		return
	}

	h.logger.Info("verification email sent", "to", req.Email)
	c.JSON(http.StatusOK, response{Success: true, Message: "Verification code sent"})
}

// NewRouter returns a gin engine serving the verification endpoint plus a
// /health check.
func NewRouter(h *VerificationHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.Register(r)
	return r
}
