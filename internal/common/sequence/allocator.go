// Package sequence mengalokasikan nomor antrian per (hari, loket).
//
// Nomor selalu diambil dengan increment atomik di storage (UPSERT atau Redis
// INCR). Pola "baca nomor terakhir lalu tambah satu" tidak dipakai karena
// dua terminal yang memanggil bersamaan bisa mendapat nomor yang sama.
package sequence

import "context"

// Allocator memberi nomor berikutnya yang belum pernah dipakai untuk key pada hari tersebut.
// Implementasi wajib aman dipanggil bersamaan dari banyak proses.
type Allocator interface {
	Next(ctx context.Context, key Key, hari string) (Ticket, error)
}
