package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/internal/services"
)

// statusByKind maps business error kinds onto HTTP status codes.
var statusByKind = map[services.Kind]int{
	services.KindValidation:         http.StatusBadRequest,
	services.KindNotFound:           http.StatusNotFound,
	services.KindInvalidTransition:  http.StatusConflict,
	services.KindInvalidBatchMember: http.StatusConflict,
	services.KindRateNotConfigured:  http.StatusUnprocessableEntity,
	services.KindTailorInactive:     http.StatusUnprocessableEntity,
	services.KindPermissionDenied:   http.StatusForbidden,
	services.KindUnavailable:        http.StatusServiceUnavailable,
}

// respondError writes a business error as JSON. Infrastructure faults are
// logged with their cause but reported to the caller without internals.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "The service is temporarily unavailable"
	var svcErr *services.Error
	if errors.As(err, &svcErr) && kind != services.KindUnavailable {
		message = svcErr.Message
	}

	if status >= 500 {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}

	c.JSON(status, gin.H{"error": message, "kind": string(kind)})
}
