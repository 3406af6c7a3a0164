// Package response menyeragamkan bentuk JSON {"status","message","data"}
// dan memetakan error domain ke kode HTTP.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
)

func JSON(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// StatusFor memetakan error ke kode HTTP.
func StatusFor(err error) int {
	var (
		ve *apperror.ValidationError
		nf *apperror.NotFoundError
		st *apperror.InvalidStateTransition
		le *apperror.LinkingError
		ae *apperror.AllocationError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &st):
		return http.StatusConflict
	case errors.As(err, &le):
		if errors.As(le.Err, &nf) {
			return http.StatusNotFound
		}
		if le.Err == nil {
			return http.StatusConflict
		}
		return http.StatusBadGateway
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error menulis error sebagai JSON. Error 5xx dicatat ke log.
func Error(c echo.Context, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request gagal")
	}

	var data interface{}
	var ve *apperror.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		data = map[string]interface{}{"fields": ve.Fields}
	}
	return JSON(c, status, err.Error(), data)
}
