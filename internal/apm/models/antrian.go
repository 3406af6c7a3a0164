package models

import "time"

// StatusAntrian tiket APM. Urutan: waiting -> called -> completed,
// atau waiting -> cancelled.
type StatusAntrian string

const (
	StatusWaiting   StatusAntrian = "waiting"
	StatusCalled    StatusAntrian = "called"
	StatusCompleted StatusAntrian = "completed"
	StatusCancelled StatusAntrian = "cancelled"
)

var transisiAntrian = map[StatusAntrian][]StatusAntrian{
	StatusWaiting: {StatusCalled, StatusCancelled},
	StatusCalled:  {StatusCompleted},
}

func (s StatusAntrian) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// BisaKe melaporkan apakah perpindahan s -> next diizinkan.
func (s StatusAntrian) BisaKe(next StatusAntrian) bool {
	for _, t := range transisiAntrian[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Antrian adalah tiket yang dicetak mesin APM.
type Antrian struct {
	ID          string        `json:"id"`
	Tanggal     string        `json:"tanggal"`
	Jenis       string        `json:"jenis"`
	Nomor       int           `json:"nomor"`
	Kode        string        `json:"kode"`
	IDPasien    *string       `json:"id_pasien"`
	Status      StatusAntrian `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CalledAt    *time.Time    `json:"called_at"`
	CompletedAt *time.Time    `json:"completed_at"`
}

type Statistik struct {
	Total     int `json:"total"`
	Waiting   int `json:"waiting"`
	Called    int `json:"called"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type AmbilAntrianRequest struct {
	Jenis    string  `json:"jenis"`
	IDPasien *string `json:"id_pasien"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
