package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/c14220110/poliklinik-antrian/internal/administrasi/models"
	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

const tabelRegistrasi = "registrasi_kunjungan"

var kolomRegistrasi = []interface{}{
	"id_registrasi", "id_pasien", "id_kunjungan", "no_antrian", "nomor", "tgl_registrasi",
	"waktu_registrasi", "jenis_kunjungan", "jenis_pasien", "poli_tujuan", "keluhan_utama",
	"status_registrasi", "metadata_user_buat", "created_at", "updated_at",
}

type PendaftaranService struct {
	Store     *storage.Store
	Allocator sequence.Allocator
	Clock     waktu.Clock
	Events    events.Publisher
	// Prefix nomor antrian loket pendaftaran.
	Prefix string
}

func NewPendaftaranService(store *storage.Store, alloc sequence.Allocator, clock waktu.Clock, pub events.Publisher, prefix string) *PendaftaranService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &PendaftaranService{Store: store, Allocator: alloc, Clock: clock, Events: pub, Prefix: prefix}
}

// Create memvalidasi input, mengambil nomor dari counter registrasi lalu
// menyimpan registrasi berstatus Menunggu.
func (s *PendaftaranService) Create(ctx context.Context, req models.BuatRegistrasiRequest, pembuat string) (*models.Registrasi, error) {
	req.IDPasien = strings.TrimSpace(req.IDPasien)
	req.JenisKunjungan = strings.TrimSpace(req.JenisKunjungan)
	req.JenisPasien = strings.TrimSpace(req.JenisPasien)
	req.PoliTujuan = strings.TrimSpace(req.PoliTujuan)

	var kosong []string
	if req.IDPasien == "" {
		kosong = append(kosong, "id_pasien")
	}
	if req.JenisKunjungan == "" {
		kosong = append(kosong, "jenis_kunjungan")
	}
	if req.JenisPasien == "" {
		kosong = append(kosong, "jenis_pasien")
	}
	if req.PoliTujuan == "" {
		kosong = append(kosong, "poli_tujuan")
	}
	if len(kosong) > 0 {
		return nil, apperror.NewValidationError("field wajib diisi", kosong...)
	}

	now := s.Clock.Sekarang()
	hari := now.Format(waktu.LayoutTanggal)

	tiket, err := s.Allocator.Next(ctx, sequence.Key{Scope: sequence.ScopeRegistrasi, Prefix: s.Prefix}, hari)
	if err != nil {
		return nil, err
	}

	r := &models.Registrasi{
		IDRegistrasi:     uuid.NewString(),
		IDPasien:         req.IDPasien,
		NoAntrian:        tiket.Kode,
		Nomor:            tiket.Nomor,
		TglRegistrasi:    hari,
		WaktuRegistrasi:  now,
		JenisKunjungan:   req.JenisKunjungan,
		JenisPasien:      req.JenisPasien,
		PoliTujuan:       req.PoliTujuan,
		KeluhanUtama:     strings.TrimSpace(req.KeluhanUtama),
		StatusRegistrasi: models.StatusMenunggu,
		MetadataUserBuat: pembuat,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	query, args, err := s.Store.Builder().Insert(tabelRegistrasi).Prepared(true).Rows(goqu.Record{
		"id_registrasi":      r.IDRegistrasi,
		"id_pasien":          r.IDPasien,
		"no_antrian":         r.NoAntrian,
		"nomor":              r.Nomor,
		"tgl_registrasi":     r.TglRegistrasi,
		"waktu_registrasi":   r.WaktuRegistrasi,
		"jenis_kunjungan":    r.JenisKunjungan,
		"jenis_pasien":       r.JenisPasien,
		"poli_tujuan":        r.PoliTujuan,
		"keluhan_utama":      r.KeluhanUtama,
		"status_registrasi":  string(r.StatusRegistrasi),
		"metadata_user_buat": r.MetadataUserBuat,
		"created_at":         r.CreatedAt,
		"updated_at":         r.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build insert registrasi")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	if _, err := s.Store.DB.ExecContext(qctx, query, args...); err != nil {
		if storage.IsDuplicate(err) {
			return nil, &apperror.AllocationError{Kategori: sequence.Key{Scope: sequence.ScopeRegistrasi, Prefix: s.Prefix}.String(), Err: errors.Wrap(err, "nomor "+r.NoAntrian+" sudah terpakai")}
		}
		return nil, errors.Wrap(err, "simpan registrasi")
	}

	events.Emit(ctx, s.Events, events.RegistrasiDibuat, r)
	return r, nil
}

// ListToday mengembalikan registrasi hari ini urut nomor antrian.
func (s *PendaftaranService) ListToday(ctx context.Context) ([]models.Registrasi, error) {
	return s.list(ctx, goqu.Ex{"tgl_registrasi": s.Clock.HariIni()}, goqu.I("nomor").Asc())
}

// ListByPasien mengembalikan riwayat registrasi pasien, terbaru dulu.
func (s *PendaftaranService) ListByPasien(ctx context.Context, idPasien string) ([]models.Registrasi, error) {
	idPasien = strings.TrimSpace(idPasien)
	if idPasien == "" {
		return nil, apperror.NewValidationError("id pasien wajib diisi", "id_pasien")
	}
	return s.list(ctx, goqu.Ex{"id_pasien": idPasien},
		goqu.I("tgl_registrasi").Desc(), goqu.I("nomor").Desc())
}

func (s *PendaftaranService) Get(ctx context.Context, id string) (*models.Registrasi, error) {
	return s.findOne(ctx, goqu.Ex{"id_registrasi": id}, "id "+id)
}

// GetByTicketCode mencari registrasi hari ini berdasarkan nomor antrian.
// Spasi di tepi dibuang dan huruf tidak dibedakan.
func (s *PendaftaranService) GetByTicketCode(ctx context.Context, kode string) (*models.Registrasi, error) {
	kode = sequence.NormalizeKode(kode)
	if kode == "" {
		return nil, apperror.NewValidationError("nomor antrian wajib diisi", "no_antrian")
	}
	return s.findOne(ctx, goqu.Ex{"tgl_registrasi": s.Clock.HariIni(), "no_antrian": kode}, kode)
}

// GetActiveByTicketCode seperti GetByTicketCode tetapi mengabaikan registrasi
// yang sudah Selesai atau Batal. Dipakai poli untuk mengisi data kunjungan.
func (s *PendaftaranService) GetActiveByTicketCode(ctx context.Context, kode string) (*models.Registrasi, error) {
	kode = sequence.NormalizeKode(kode)
	if kode == "" {
		return nil, apperror.NewValidationError("nomor antrian wajib diisi", "no_antrian")
	}
	return s.findOne(ctx, goqu.Ex{
		"tgl_registrasi":    s.Clock.HariIni(),
		"no_antrian":        kode,
		"status_registrasi": goqu.Op{"notIn": []string{string(models.StatusSelesai), string(models.StatusBatal)}},
	}, kode)
}

// UpdateStatus memajukan status registrasi dengan compare-and-swap.
func (s *PendaftaranService) UpdateStatus(ctx context.Context, id, status string) (*models.Registrasi, error) {
	next, ok := models.ParseStatusRegistrasi(status)
	if !ok {
		return nil, apperror.NewValidationError("status registrasi tidak dikenal: "+status, "status")
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.StatusRegistrasi.BisaKe(next) {
		return nil, &apperror.InvalidStateTransition{Entity: "registrasi", ID: id, From: string(cur.StatusRegistrasi), To: string(next)}
	}

	now := s.Clock.Sekarang()
	query, args, err := s.Store.Builder().Update(tabelRegistrasi).Prepared(true).
		Set(goqu.Record{"status_registrasi": string(next), "updated_at": now}).
		Where(goqu.Ex{"id_registrasi": id, "status_registrasi": string(cur.StatusRegistrasi)}).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build update registrasi")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	res, err := s.Store.DB.ExecContext(qctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "update status registrasi")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "cek update registrasi")
	}
	if affected == 0 {
		latest, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &apperror.InvalidStateTransition{Entity: "registrasi", ID: id, From: string(latest.StatusRegistrasi), To: string(next)}
	}

	cur.StatusRegistrasi = next
	cur.UpdatedAt = now
	events.Emit(ctx, s.Events, events.RegistrasiStatus, cur)
	return cur, nil
}

func (s *PendaftaranService) list(ctx context.Context, where goqu.Ex, order ...exp.OrderedExpression) ([]models.Registrasi, error) {
	query, args, err := s.Store.Builder().From(tabelRegistrasi).Prepared(true).
		Select(kolomRegistrasi...).
		Where(where).
		Order(order...).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build query registrasi")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	rows, err := s.Store.DB.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query registrasi")
	}
	defer rows.Close()

	list := []models.Registrasi{}
	for rows.Next() {
		r, err := scanRegistrasi(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterasi registrasi")
	}
	return list, nil
}

func (s *PendaftaranService) findOne(ctx context.Context, where goqu.Ex, key string) (*models.Registrasi, error) {
	query, args, err := s.Store.Builder().From(tabelRegistrasi).Prepared(true).
		Select(kolomRegistrasi...).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build query registrasi")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	r, err := scanRegistrasi(s.Store.DB.QueryRowContext(qctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.NotFoundError{Entity: "registrasi", Key: key}
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistrasi(row scanner) (*models.Registrasi, error) {
	var (
		r           models.Registrasi
		idKunjungan sql.NullString
		status      string
	)
	err := row.Scan(&r.IDRegistrasi, &r.IDPasien, &idKunjungan, &r.NoAntrian, &r.Nomor, &r.TglRegistrasi,
		&r.WaktuRegistrasi, &r.JenisKunjungan, &r.JenisPasien, &r.PoliTujuan, &r.KeluhanUtama,
		&status, &r.MetadataUserBuat, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan registrasi")
	}
	r.StatusRegistrasi = models.StatusRegistrasi(status)
	if idKunjungan.Valid {
		r.IDKunjungan = &idKunjungan.String
	}
	return &r, nil
}
