package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/internal/dokter/models"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

const tabelKunjungan = "kunjungan"

var kolomKunjungan = []interface{}{
	"id_kunjungan", "id_pasien", "id_registrasi", "tgl_kunjungan", "jenis_kunjungan", "jenis_pasien",
	"unit_pelayanan", "tenaga_medis_pj", "keluhan_utama", "metadata_user_buat", "created_at",
}

// Penaut menautkan registrasi ke kunjungan. Dipenuhi oleh
// administrasi/services.PenautanService.
type Penaut interface {
	Tautkan(ctx context.Context, idRegistrasi, idKunjungan string) error
}

type KunjunganService struct {
	Store  *storage.Store
	Clock  waktu.Clock
	Events events.Publisher
	Penaut Penaut
}

func NewKunjunganService(store *storage.Store, clock waktu.Clock, pub events.Publisher, penaut Penaut) *KunjunganService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &KunjunganService{Store: store, Clock: clock, Events: pub, Penaut: penaut}
}

// BuatKunjungan berjalan dua tahap: kunjungan disimpan dulu, lalu registrasi
// ditautkan. Gagal menautkan tidak membatalkan kunjungan; kegagalannya
// dikembalikan sebagai peringatan.
func (s *KunjunganService) BuatKunjungan(ctx context.Context, req models.BuatKunjunganRequest, pembuat string) (*models.HasilKunjungan, error) {
	k, err := s.validasi(req)
	if err != nil {
		return nil, err
	}
	k.IDKunjungan = uuid.NewString()
	k.MetadataUserBuat = pembuat
	k.CreatedAt = s.Clock.Sekarang()

	var idRegistrasi interface{}
	if k.IDRegistrasi != nil {
		idRegistrasi = *k.IDRegistrasi
	}
	query, args, err := s.Store.Builder().Insert(tabelKunjungan).Prepared(true).Rows(goqu.Record{
		"id_kunjungan":       k.IDKunjungan,
		"id_pasien":          k.IDPasien,
		"id_registrasi":      idRegistrasi,
		"tgl_kunjungan":      k.TglKunjungan,
		"jenis_kunjungan":    k.JenisKunjungan,
		"jenis_pasien":       k.JenisPasien,
		"unit_pelayanan":     k.UnitPelayanan,
		"tenaga_medis_pj":    k.TenagaMedisPJ,
		"keluhan_utama":      k.KeluhanUtama,
		"metadata_user_buat": k.MetadataUserBuat,
		"created_at":         k.CreatedAt,
	}).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build insert kunjungan")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	if _, err := s.Store.DB.ExecContext(qctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "simpan kunjungan")
	}
	events.Emit(ctx, s.Events, events.KunjunganDibuat, k)

	hasil := &models.HasilKunjungan{Kunjungan: k}
	if k.IDRegistrasi == nil {
		return hasil, nil
	}

	if err := s.Penaut.Tautkan(ctx, *k.IDRegistrasi, k.IDKunjungan); err != nil {
		log.Error().Err(err).
			Str("id_kunjungan", k.IDKunjungan).
			Str("id_registrasi", *k.IDRegistrasi).
			Msg("kunjungan tersimpan tetapi registrasi gagal ditautkan")
		hasil.PeringatanTautan = err.Error()
		return hasil, nil
	}
	hasil.Ditautkan = true
	return hasil, nil
}

func (s *KunjunganService) validasi(req models.BuatKunjunganRequest) (*models.Kunjungan, error) {
	k := &models.Kunjungan{
		IDPasien:       strings.TrimSpace(req.IDPasien),
		JenisKunjungan: strings.TrimSpace(req.JenisKunjungan),
		JenisPasien:    strings.TrimSpace(req.JenisPasien),
		UnitPelayanan:  strings.TrimSpace(req.UnitPelayanan),
		TenagaMedisPJ:  strings.TrimSpace(req.TenagaMedisPJ),
		KeluhanUtama:   strings.TrimSpace(req.KeluhanUtama),
	}
	if req.IDRegistrasi != nil {
		if v := strings.TrimSpace(*req.IDRegistrasi); v != "" {
			k.IDRegistrasi = &v
		}
	}

	var kosong []string
	for _, f := range []struct{ nama, nilai string }{
		{"id_pasien", k.IDPasien},
		{"tgl_kunjungan", strings.TrimSpace(req.TglKunjungan)},
		{"jenis_kunjungan", k.JenisKunjungan},
		{"jenis_pasien", k.JenisPasien},
		{"unit_pelayanan", k.UnitPelayanan},
		{"tenaga_medis_pj", k.TenagaMedisPJ},
	} {
		if f.nilai == "" {
			kosong = append(kosong, f.nama)
		}
	}
	if len(kosong) > 0 {
		return nil, apperror.NewValidationError("field wajib diisi", kosong...)
	}

	tgl, err := s.parseTanggal(strings.TrimSpace(req.TglKunjungan))
	if err != nil {
		return nil, apperror.NewValidationError("format tgl_kunjungan tidak valid, gunakan YYYY-MM-DD atau RFC3339", "tgl_kunjungan")
	}
	k.TglKunjungan = tgl
	return k, nil
}

func (s *KunjunganService) parseTanggal(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	loc := s.Clock.Loc
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(waktu.LayoutTanggal, v, loc)
}

func (s *KunjunganService) Get(ctx context.Context, id string) (*models.Kunjungan, error) {
	query, args, err := s.Store.Builder().From(tabelKunjungan).Prepared(true).
		Select(kolomKunjungan...).
		Where(goqu.Ex{"id_kunjungan": id}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build query kunjungan")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()

	var (
		k            models.Kunjungan
		idRegistrasi sql.NullString
	)
	err = s.Store.DB.QueryRowContext(qctx, query, args...).Scan(
		&k.IDKunjungan, &k.IDPasien, &idRegistrasi, &k.TglKunjungan, &k.JenisKunjungan, &k.JenisPasien,
		&k.UnitPelayanan, &k.TenagaMedisPJ, &k.KeluhanUtama, &k.MetadataUserBuat, &k.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.NotFoundError{Entity: "kunjungan", Key: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan kunjungan")
	}
	if idRegistrasi.Valid {
		k.IDRegistrasi = &idRegistrasi.String
	}
	return &k, nil
}
