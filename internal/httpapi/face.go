package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smartattendance/internal/faces"
	"smartattendance/internal/identity"
	"smartattendance/internal/queue"
)

// ---------- Face registration ----------

type registerFaceRequest struct {
	Image     string `json:"image" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`
}

// RegisterFace stores the student's photo and queues enrollment with the
// face service. A queue failure does not fail the request.
func (h *Handler) RegisterFace(c *gin.Context) {
	var req registerFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "image and student_id required")
		return
	}
	ctx := c.Request.Context()

	student, err := identity.Resolve(ctx, h.Directory, req.StudentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	img, err := faces.DecodeImage(req.Image)
	if err != nil {
		h.writeError(c, err)
		return
	}
	location, err := h.Faces.Put(ctx, student.USN, img)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.Jobs != nil {
		msg, err := queue.NewFaceEnrollment(queue.FaceEnrollment{
			USN:      student.USN,
			Name:     student.Name,
			ImageURL: location,
		})
		if err == nil {
			err = h.Jobs.Publish(ctx, msg)
		}
		if err != nil {
			h.logger.Warn("queue face enrollment", zap.String("usn", student.USN), zap.Error(err))
		}
	}

	h.logger.Info("face registered", zap.String("usn", student.USN), zap.String("file", location))
	c.JSON(http.StatusOK, gin.H{"file": location})
}
