package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/c14220110/poliklinik-antrian/internal/administrasi/models"
	apmModels "github.com/c14220110/poliklinik-antrian/internal/apm/models"
	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
)

// PencariTiket adalah kemampuan baca tiket APM yang dibutuhkan pencocokan.
// Dipenuhi oleh apm/services.AntrianService.
type PencariTiket interface {
	FindTicket(ctx context.Context, kode, jenis, hari string) (*apmModels.Antrian, error)
}

// PencocokanService memeriksa apakah nomor tiket APM yang dibawa pasien
// memang tiket hari ini yang masih menunggu. Hasilnya hanya saran.
type PencocokanService struct {
	Tiket PencariTiket
	Clock waktu.Clock
}

func NewPencocokanService(tiket PencariTiket, clock waktu.Clock) *PencocokanService {
	return &PencocokanService{Tiket: tiket, Clock: clock}
}

// Cocokkan tidak pernah mengembalikan error untuk tiket yang tidak cocok;
// error hanya untuk kegagalan store.
func (s *PencocokanService) Cocokkan(ctx context.Context, kode, jenis string, idPasien *string) (*models.HasilValidasi, error) {
	kode = sequence.NormalizeKode(kode)
	if kode == "" {
		return &models.HasilValidasi{Alasan: "nomor antrian kosong"}, nil
	}

	tiket, err := s.Tiket.FindTicket(ctx, kode, jenis, s.Clock.HariIni())
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return &models.HasilValidasi{Alasan: "nomor antrian " + kode + " tidak ditemukan hari ini"}, nil
		}
		return nil, err
	}

	if tiket.Status != apmModels.StatusWaiting {
		return &models.HasilValidasi{Alasan: "nomor antrian sudah berstatus " + string(tiket.Status), Antrian: tiket}, nil
	}

	if idPasien != nil && strings.TrimSpace(*idPasien) != "" {
		p := strings.TrimSpace(*idPasien)
		if tiket.IDPasien == nil || *tiket.IDPasien != p {
			return &models.HasilValidasi{Alasan: "nomor antrian bukan milik pasien ini", Antrian: tiket}, nil
		}
	}

	return &models.HasilValidasi{Cocok: true, Antrian: tiket}, nil
}
