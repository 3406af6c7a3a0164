package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/internal/administrasi/models"
	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

const tabelKunjungan = "kunjungan"

// PenautanService menghubungkan registrasi dengan kunjungan yang sudah dibuat
// poli. Hanya tabel registrasi yang disentuh; kunjungan tidak pernah diubah.
type PenautanService struct {
	Store  *storage.Store
	Clock  waktu.Clock
	Events events.Publisher
	// Registrasi dipakai untuk membaca ulang baris saat update tidak mengenai apa pun.
	Registrasi *PendaftaranService
}

func NewPenautanService(store *storage.Store, clock waktu.Clock, pub events.Publisher, registrasi *PendaftaranService) *PenautanService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &PenautanService{Store: store, Clock: clock, Events: pub, Registrasi: registrasi}
}

// Tautkan mengisi id_kunjungan dan menandai registrasi Selesai. Kunjungan
// harus sudah tersimpan. Memanggil ulang dengan kunjungan yang sama tidak
// mengubah apa pun.
func (s *PenautanService) Tautkan(ctx context.Context, idRegistrasi, idKunjungan string) error {
	idRegistrasi = strings.TrimSpace(idRegistrasi)
	idKunjungan = strings.TrimSpace(idKunjungan)
	var kosong []string
	if idRegistrasi == "" {
		kosong = append(kosong, "id_registrasi")
	}
	if idKunjungan == "" {
		kosong = append(kosong, "id_kunjungan")
	}
	if len(kosong) > 0 {
		return apperror.NewValidationError("field wajib diisi", kosong...)
	}

	gagal := func(reason string, err error) error {
		return &apperror.LinkingError{IDRegistrasi: idRegistrasi, IDKunjungan: idKunjungan, Reason: reason, Err: err}
	}

	query, args, err := s.Store.Builder().Update(tabelRegistrasi).Prepared(true).
		Set(goqu.Record{
			"id_kunjungan":      idKunjungan,
			"status_registrasi": string(models.StatusSelesai),
			"updated_at":        s.Clock.Sekarang(),
		}).
		Where(
			goqu.Ex{
				"id_registrasi": idRegistrasi,
				"status_registrasi": []string{
					string(models.StatusMenunggu), string(models.StatusDipanggil), string(models.StatusSelesai),
				},
			},
			goqu.Or(goqu.C("id_kunjungan").IsNull(), goqu.C("id_kunjungan").Eq(idKunjungan)),
			goqu.L("EXISTS (SELECT 1 FROM "+tabelKunjungan+" WHERE "+tabelKunjungan+".id_kunjungan = ?)", idKunjungan),
		).
		ToSQL()
	if err != nil {
		return gagal("", errors.Wrap(err, "build update penautan"))
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	res, err := s.Store.DB.ExecContext(qctx, query, args...)
	if err != nil {
		return gagal("", errors.Wrap(err, "update penautan"))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return gagal("", errors.Wrap(err, "cek update penautan"))
	}

	if affected == 0 {
		r, err := s.Registrasi.Get(ctx, idRegistrasi)
		if err != nil {
			return gagal("", err)
		}
		switch {
		case r.IDKunjungan != nil && *r.IDKunjungan == idKunjungan:
			// MySQL melaporkan 0 baris bila nilai tidak berubah
			return nil
		case r.IDKunjungan != nil:
			return gagal("registrasi sudah ditautkan ke kunjungan "+*r.IDKunjungan, nil)
		case r.StatusRegistrasi == models.StatusBatal:
			return gagal("registrasi sudah dibatalkan", nil)
		}

		ada, err := s.kunjunganAda(ctx, idKunjungan)
		if err != nil {
			return gagal("", err)
		}
		if !ada {
			return gagal("", &apperror.NotFoundError{Entity: "kunjungan", Key: idKunjungan})
		}
		return gagal("registrasi berstatus "+string(r.StatusRegistrasi), nil)
	}

	log.Info().Str("id_registrasi", idRegistrasi).Str("id_kunjungan", idKunjungan).Msg("registrasi ditautkan ke kunjungan")
	events.Emit(ctx, s.Events, events.RegistrasiDitautkan, map[string]string{
		"id_registrasi": idRegistrasi,
		"id_kunjungan":  idKunjungan,
	})
	return nil
}

func (s *PenautanService) kunjunganAda(ctx context.Context, idKunjungan string) (bool, error) {
	query, args, err := s.Store.Builder().From(tabelKunjungan).Prepared(true).
		Select(goqu.L("1")).
		Where(goqu.Ex{"id_kunjungan": idKunjungan}).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, errors.Wrap(err, "build query kunjungan")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	var satu int
	err = s.Store.DB.QueryRowContext(qctx, query, args...).Scan(&satu)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "cek kunjungan")
	}
	return true, nil
}
