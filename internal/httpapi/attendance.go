package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"smartattendance/internal/attendance"
	"smartattendance/internal/auth"
	"smartattendance/internal/geo"
)

// recordResponse is the wire form of a ledger row.
type recordResponse struct {
	ID              int64     `json:"id"`
	StudentUSN      string    `json:"student_usn"`
	StudentName     string    `json:"student_name,omitempty"`
	SessionID       string    `json:"session_id"`
	Manual          bool      `json:"manual"`
	ClassroomID     int       `json:"classroom_id"`
	Subject         string    `json:"subject"`
	QRMatch         bool      `json:"qr_match"`
	LocationMatch   bool      `json:"location_match"`
	FaceMatch       bool      `json:"face_match"`
	MarkedByTeacher bool      `json:"marked_by_teacher"`
	Attended        bool      `json:"attended"`
	Timestamp       time.Time `json:"timestamp"`
}

func toRecordResponse(r attendance.Record) recordResponse {
	return recordResponse{
		ID:              r.ID,
		StudentUSN:      r.StudentUSN,
		SessionID:       r.SessionRef.String(),
		Manual:          r.SessionRef.Manual(),
		ClassroomID:     r.ClassroomID,
		Subject:         r.Subject,
		QRMatch:         r.QRMatch,
		LocationMatch:   r.LocationMatch,
		FaceMatch:       r.FaceMatch,
		MarkedByTeacher: r.MarkedByTeacher,
		Attended:        r.Attended(),
		Timestamp:       r.Timestamp,
	}
}

// ---------- Marking ----------

type markRequest struct {
	SessionID string     `json:"session_id"`
	StudentID string     `json:"student_id"`
	Location  *geo.Point `json:"location"`
	FaceImage string     `json:"face_image"`
}

// Mark records a student's own attendance. student_id defaults to the caller.
func (h *Handler) Mark(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		p, _ := auth.PrincipalFrom(c)
		req.StudentID = p.USN
	}
	rec, err := h.Marker.Mark(c.Request.Context(), attendance.MarkRequest{
		SessionID: req.SessionID,
		StudentID: req.StudentID,
		Location:  req.Location,
		FaceImage: req.FaceImage,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attendance_id": rec.ID})
}

type overrideRequest struct {
	Subject     string   `json:"subject"`
	USNs        []string `json:"usns"`
	ClassroomID int      `json:"classroom_id"`
}

// OverrideMark lets a teacher mark a list of students present.
func (h *Handler) OverrideMark(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, _ := auth.PrincipalFrom(c)
	res, err := h.Overrider.ManualMark(c.Request.Context(), attendance.ManualMarkRequest{
		Teacher:     p.USN,
		Subject:     req.Subject,
		USNs:        req.USNs,
		ClassroomID: req.ClassroomID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"marked":     res.Marked,
		"session_id": res.SessionID,
		"results":    res.Results,
	})
}

// ---------- Reports ----------

func (h *Handler) History(c *gin.Context) {
	hist, err := h.Reporter.History(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	records := make([]recordResponse, 0, len(hist.Records))
	for _, r := range hist.Records {
		records = append(records, toRecordResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"total_records": hist.TotalRecords,
		"attended":      hist.Attended,
		"records":       records,
	})
}

func (h *Handler) SessionAttendance(c *gin.Context) {
	view, err := h.Reporter.SessionView(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	records := make([]recordResponse, 0, len(view.Records))
	for _, e := range view.Records {
		r := toRecordResponse(e.Record)
		r.StudentName = e.StudentName
		records = append(records, r)
	}
	c.JSON(http.StatusOK, gin.H{
		"records":        records,
		"total_students": view.TotalStudents,
		"present_count":  view.PresentCount,
		"percentage":     view.Percentage,
	})
}
