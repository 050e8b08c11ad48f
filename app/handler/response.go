package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shiftboard/app/middleware"
	"shiftboard/internal/service"
	"shiftboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

var statusByCode = map[service.Code]int{
	service.CodeConflict:          http.StatusConflict,
	service.CodeAlreadyAccepted:   http.StatusConflict,
	service.CodeInvalidTransition: http.StatusConflict,
	service.CodeNotYetEligible:    http.StatusUnprocessableEntity,
	service.CodeValidation:        http.StatusBadRequest,
	service.CodeNotFound:          http.StatusNotFound,
	service.CodeForbidden:         http.StatusForbidden,
}

// writeError maps engine errors to {"error": code, "reason": text}
func writeError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status, ok := statusByCode[svcErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		body := gin.H{"error": svcErr.Code, "reason": svcErr.Reason}
		if len(svcErr.Details) > 0 {
			body["details"] = svcErr.Details
		}
		c.JSON(status, body)
		return
	}

	logger.ErrorCtx(c.Request.Context(), "request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "reason": "internal server error"})
}

func badRequest(c *gin.Context, reason string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": service.CodeValidation, "reason": reason})
}

// actor returns the authenticated user id set by the identity middleware
func actor(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// page reads limit/offset query parameters
func page(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validationErr(reason string) error {
	return &service.Error{Code: service.CodeValidation, Reason: reason}
}

func forbiddenErr(reason string) error {
	return &service.Error{Code: service.CodeForbidden, Reason: reason}
}
