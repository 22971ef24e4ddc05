package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/mw"
)

// problem is the error envelope of every failed request.
type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func writeProblem(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, problem{
			Title:  "Internal error",
			Detail: "the request could not be completed",
			Status: http.StatusInternalServerError,
		})
		return
	}

	status := apperr.HTTPStatus(appErr.Kind)
	c.AbortWithStatusJSON(status, problem{
		Title:  appErr.Title(),
		Detail: appErr.Detail,
		Status: status,
	})
}

// badRequest reports a body or query that failed to bind.
func badRequest(c *gin.Context, err error) {
	writeProblem(c, apperr.Validation("invalid request: %v", err))
}

func principal(c *gin.Context) mw.Principal {
	p, _ := mw.PrincipalFrom(c)
	return p
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(c, apperr.Validation("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return id, true
}

const dayLayout = "2006-01-02"

// parseInstant accepts RFC 3339 timestamps or bare dates (UTC midnight).
func parseInstant(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, apperr.Validation("%s is required", name)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dayLayout, v); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("%s %q is not an ISO-8601 date or timestamp", name, v)
}

func queryPeriod(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := parseInstant("start", c.Query("start"))
	if err != nil {
		writeProblem(c, err)
		return time.Time{}, time.Time{}, false
	}
	end, err := parseInstant("end", c.Query("end"))
	if err != nil {
		writeProblem(c, err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
