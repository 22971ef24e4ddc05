package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/attendance"
	"hotel-ops-backend/internal/model"
)

type codeResponse struct {
	Code       string    `json:"code"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
}

func newCodeResponse(code model.AttendanceCode) codeResponse {
	return codeResponse{Code: code.Code, ValidFrom: code.ValidFrom, ValidUntil: code.ValidUntil}
}

// GetCurrentCode handles GET /attendance/codes/current.
func (h *Handler) GetCurrentCode(c *gin.Context) {
	code, err := h.attendance.Current(c.Request.Context(), principal(c).HotelID)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, newCodeResponse(code))
}

// PostRegenerateCode handles POST /attendance/codes/regenerate.
func (h *Handler) PostRegenerateCode(c *gin.Context) {
	code, err := h.attendance.Generate(c.Request.Context(), principal(c).HotelID)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, newCodeResponse(code))
}

type checkInRequest struct {
	Code string   `json:"code" binding:"required"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// PostCheckIn handles POST /attendance/check-in.
func (h *Handler) PostCheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeProblem(c, apperr.Validation("lat and lng must be sent together"))
		return
	}
	var geo *attendance.Geo
	if req.Lat != nil {
		geo = &attendance.Geo{Lat: *req.Lat, Lng: *req.Lng}
	}

	p := principal(c)
	rec, err := h.attendance.CheckIn(c.Request.Context(), p.HotelID, p.EmployeeID, req.Code, geo)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type checkOutRequest struct {
	Code string `json:"code"`
}

type checkOutResponse struct {
	AttendanceID string    `json:"attendanceId"`
	CheckOutAt   time.Time `json:"checkOutAt"`
}

// PostCheckOut handles POST and PATCH /attendance/check-out. The body may
// be empty when codes are not required for checking out.
func (h *Handler) PostCheckOut(c *gin.Context) {
	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	p := principal(c)
	rec, err := h.attendance.CheckOut(c.Request.Context(), p.HotelID, p.EmployeeID, req.Code)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, checkOutResponse{AttendanceID: rec.ID, CheckOutAt: *rec.CheckOutAt})
}

// GetAttendance handles GET /attendance for the whole hotel. An optional
// employeeId narrows the listing.
func (h *Handler) GetAttendance(c *gin.Context) {
	var employeeID *int64
	if v := c.Query("employeeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeProblem(c, apperr.Validation("invalid employeeId %q", v))
			return
		}
		employeeID = &id
	}
	h.listAttendance(c, employeeID)
}

// GetMyAttendance handles GET /attendance/me.
func (h *Handler) GetMyAttendance(c *gin.Context) {
	id := principal(c).EmployeeID
	h.listAttendance(c, &id)
}

func (h *Handler) listAttendance(c *gin.Context, employeeID *int64) {
	from, ok := h.queryDay(c, "start")
	if !ok {
		return
	}
	to, ok := h.queryDay(c, "end")
	if !ok {
		return
	}
	recs, err := h.attendance.List(c.Request.Context(), principal(c).HotelID, employeeID, from, to)
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// queryDay reads an optional date bound. Timestamps are mapped to their
// calendar day in the attendance timezone.
func (h *Handler) queryDay(c *gin.Context, name string) (string, bool) {
	v := c.Query(name)
	if v == "" {
		return "", true
	}
	if _, err := time.Parse(dayLayout, v); err == nil {
		return v, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		writeProblem(c, apperr.Validation("%s %q is not an ISO-8601 date or timestamp", name, v))
		return "", false
	}
	return h.attendance.Day(t), true
}
