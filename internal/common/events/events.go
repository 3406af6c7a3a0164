// Package events menyebarkan perubahan antrian dan registrasi ke papan
// antrian (websocket) dan ke broker pesan.
package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Routing key untuk setiap perubahan.
const (
	AntrianDibuat       = "antrian.dibuat"
	AntrianStatus       = "antrian.status"
	RegistrasiDibuat    = "registrasi.dibuat"
	RegistrasiStatus    = "registrasi.status"
	RegistrasiDitautkan = "registrasi.ditautkan"
	KunjunganDibuat     = "kunjungan.dibuat"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Nop membuang semua event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Multi meneruskan event ke beberapa publisher sekaligus. Error dari satu
// publisher tidak menghentikan yang lain; error pertama dikembalikan.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, routingKey string, payload any) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, routingKey, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Emit mengirim event dan hanya mencatat kegagalan. Operasi yang sudah
// tersimpan tidak boleh gagal karena papan antrian atau broker mati.
func Emit(ctx context.Context, p Publisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, payload); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("gagal mengirim event")
	}
}
