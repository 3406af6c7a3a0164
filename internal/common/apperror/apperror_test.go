package apperror

import (
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	base := &NotFoundError{Entity: "registrasi", Key: "r-1"}
	wrapped := errors.Wrap(&LinkingError{IDRegistrasi: "r-1", IDKunjungan: "k-1", Err: base}, "tautkan")

	var le *LinkingError
	assert.True(t, errors.As(wrapped, &le))
	assert.Equal(t, "k-1", le.IDKunjungan)

	var nf *NotFoundError
	assert.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, "registrasi", nf.Entity)
}

func TestAllocationError_Unwrap(t *testing.T) {
	err := &AllocationError{Kategori: "apm:A", Err: sql.ErrConnDone}
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "apm:A")
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("field wajib diisi", "id_pasien", "poli_tujuan")
	assert.Equal(t, "field wajib diisi: id_pasien, poli_tujuan", err.Error())
	assert.Equal(t, "jenis tidak dikenal", NewValidationError("jenis tidak dikenal").Error())
}

func TestInvalidStateTransition_Message(t *testing.T) {
	err := &InvalidStateTransition{Entity: "antrian", ID: "x", From: "completed", To: "waiting"}
	assert.Contains(t, err.Error(), `"completed"`)
	assert.Contains(t, err.Error(), `"waiting"`)
}
