package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartattendance/internal/auth"
	"smartattendance/internal/identity"
)

// ---------- Auth and directory ----------

type loginRequest struct {
	USN      string `json:"usn" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "usn and password required")
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.USN, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeTokens(c, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh trades a refresh token for a new token pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token required")
		return
	}
	res, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeTokens(c, res)
}

func writeTokens(c *gin.Context, res auth.LoginResult) {
	c.JSON(http.StatusOK, gin.H{
		"access_token":  res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
		"expires_at":    res.Tokens.AccessExp.Unix(),
		"usn":           res.Identity.USN,
		"name":          res.Identity.Name,
		"is_teacher":    res.Identity.IsTeacher,
	})
}

func (h *Handler) Students(c *gin.Context) {
	students, err := h.Reporter.Students(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if students == nil {
		students = []identity.Identity{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) TeacherSubjects(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	subjects, err := h.Directory.TeacherSubjects(c.Request.Context(), p.USN)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}
