package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartattendance/internal/geo"
)

// ---------- Location ----------

func (h *Handler) ClassroomLocation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"latitude":  h.Classroom.Center.Lat,
		"longitude": h.Classroom.Center.Lng,
		"radius":    h.Classroom.Radius,
	})
}

func (h *Handler) VerifyLocation(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		badRequest(c, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		badRequest(c, "lng must be a number")
		return
	}
	c.JSON(http.StatusOK, h.Classroom.Contains(geo.Point{Lat: lat, Lng: lng}))
}
