package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"smartattendance/internal/auth"
)

// ---------- Sessions ----------

type createSessionRequest struct {
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

// CreateSession opens a session. teacher_id defaults to the caller.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.TeacherID) == "" {
		p, _ := auth.PrincipalFrom(c)
		req.TeacherID = p.USN
	}
	s, err := h.Sessions.Create(c.Request.Context(), req.Subject, req.TeacherID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"subject":    s.Subject,
		"expires_at": s.ExpiresAt,
	})
}

type stopSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *Handler) StopSession(c *gin.Context) {
	var req stopSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "session_id required")
		return
	}
	if err := h.Sessions.Stop(c.Request.Context(), req.SessionID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": req.SessionID})
}

func (h *Handler) VerifySession(c *gin.Context) {
	s, err := h.Sessions.Verify(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"subject":    s.Subject,
		"teacher_id": s.TeacherID,
	})
}

func (h *Handler) ActiveSession(c *gin.Context) {
	s, err := h.Sessions.Active(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if s == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":     true,
		"session_id": s.ID,
		"subject":    s.Subject,
		"teacher_id": s.TeacherID,
		"expires_at": s.ExpiresAt,
	})
}

// SessionQR renders the session token as a PNG for students to scan.
func (h *Handler) SessionQR(c *gin.Context) {
	s, err := h.Sessions.Verify(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.ID, qrcode.Medium, 256)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
