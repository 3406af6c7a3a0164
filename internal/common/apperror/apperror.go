// Package apperror mendefinisikan jenis error domain antrian dan registrasi.
// Semua tipe bisa dicocokkan dengan errors.As dan membungkus penyebab aslinya.
package apperror

import (
	"fmt"
	"strings"
)

// AllocationError: nomor antrian tidak bisa diambil atau dinaikkan.
// Operasi pemanggil harus dibatalkan tanpa menulis apa pun.
type AllocationError struct {
	Kategori string
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("gagal mendapatkan nomor antrian %s: %v", e.Kategori, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// ValidationError: field wajib kosong atau nilai tidak dikenal.
type ValidationError struct {
	Fields  []string
	Message string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// InvalidStateTransition: perubahan status melanggar urutan maju.
type InvalidStateTransition struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("%s %s tidak bisa berpindah dari status %q ke %q", e.Entity, e.ID, e.From, e.To)
}

// NotFoundError: pencarian berdasarkan id atau kode tidak menemukan apa pun.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s tidak ditemukan", e.Entity, e.Key)
}

// LinkingError: tautan registrasi ke kunjungan gagal disimpan.
// Kunjungan yang sudah dibuat tetap berlaku.
type LinkingError struct {
	IDRegistrasi string
	IDKunjungan  string
	Reason       string
	Err          error
}

func (e *LinkingError) Error() string {
	msg := fmt.Sprintf("gagal menghubungkan registrasi %s dengan kunjungan %s", e.IDRegistrasi, e.IDKunjungan)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkingError) Unwrap() error { return e.Err }
