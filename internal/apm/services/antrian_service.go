package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/c14220110/poliklinik-antrian/internal/apm/models"
	"github.com/c14220110/poliklinik-antrian/internal/common/apperror"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
)

const tabelAntrian = "antrian_apm"

var kolomAntrian = []interface{}{
	"id", "tanggal", "jenis", "nomor", "kode", "id_pasien", "status",
	"created_at", "called_at", "completed_at",
}

type AntrianService struct {
	Store     *storage.Store
	Allocator sequence.Allocator
	Clock     waktu.Clock
	Events    events.Publisher
	// Jenis loket yang dikenal mesin APM.
	Jenis []string
}

func NewAntrianService(store *storage.Store, alloc sequence.Allocator, clock waktu.Clock, pub events.Publisher, jenis []string) *AntrianService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AntrianService{Store: store, Allocator: alloc, Clock: clock, Events: pub, Jenis: jenis}
}

func (s *AntrianService) jenisDikenal(jenis string) bool {
	for _, j := range s.Jenis {
		if j == jenis {
			return true
		}
	}
	return false
}

// Issue mengambil nomor berikutnya untuk jenis loket lalu menyimpan tiket
// berstatus waiting. Bila alokasi gagal tidak ada baris yang ditulis.
func (s *AntrianService) Issue(ctx context.Context, jenis string, idPasien *string) (*models.Antrian, error) {
	jenis = strings.ToUpper(strings.TrimSpace(jenis))
	if jenis == "" {
		return nil, apperror.NewValidationError("jenis antrian wajib diisi", "jenis")
	}
	if !s.jenisDikenal(jenis) {
		return nil, apperror.NewValidationError("jenis antrian tidak dikenal: "+jenis, "jenis")
	}
	if idPasien != nil {
		v := strings.TrimSpace(*idPasien)
		if v == "" {
			idPasien = nil
		} else {
			idPasien = &v
		}
	}

	now := s.Clock.Sekarang()
	hari := now.Format(waktu.LayoutTanggal)

	tiket, err := s.Allocator.Next(ctx, sequence.Key{Scope: sequence.ScopeAPM, Prefix: jenis}, hari)
	if err != nil {
		return nil, err
	}

	a := &models.Antrian{
		ID:        uuid.NewString(),
		Tanggal:   hari,
		Jenis:     jenis,
		Nomor:     tiket.Nomor,
		Kode:      tiket.Kode,
		IDPasien:  idPasien,
		Status:    models.StatusWaiting,
		CreatedAt: now,
	}

	query, args, err := s.Store.Builder().Insert(tabelAntrian).Prepared(true).Rows(goqu.Record{
		"id":         a.ID,
		"tanggal":    a.Tanggal,
		"jenis":      a.Jenis,
		"nomor":      a.Nomor,
		"kode":       a.Kode,
		"id_pasien":  nullString(a.IDPasien),
		"status":     string(a.Status),
		"created_at": a.CreatedAt,
	}).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build insert antrian")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	if _, err := s.Store.DB.ExecContext(qctx, query, args...); err != nil {
		if storage.IsDuplicate(err) {
			// counter tertinggal dari data, misal key Redis hilang
			return nil, &apperror.AllocationError{Kategori: sequence.Key{Scope: sequence.ScopeAPM, Prefix: jenis}.String(), Err: errors.Wrap(err, "nomor "+a.Kode+" sudah terpakai")}
		}
		return nil, errors.Wrap(err, "simpan antrian")
	}

	events.Emit(ctx, s.Events, events.AntrianDibuat, a)
	return a, nil
}

// ListToday mengembalikan tiket hari ini urut nomor lalu waktu ambil.
// jenis nil berarti semua loket.
func (s *AntrianService) ListToday(ctx context.Context, jenis *string) ([]models.Antrian, error) {
	where := goqu.Ex{"tanggal": s.Clock.HariIni()}
	if jenis != nil && strings.TrimSpace(*jenis) != "" {
		where["jenis"] = strings.ToUpper(strings.TrimSpace(*jenis))
	}

	query, args, err := s.Store.Builder().From(tabelAntrian).Prepared(true).
		Select(kolomAntrian...).
		Where(where).
		Order(goqu.I("nomor").Asc(), goqu.I("created_at").Asc(), goqu.I("jenis").Asc()).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build query antrian")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	rows, err := s.Store.DB.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query antrian hari ini")
	}
	defer rows.Close()

	list := []models.Antrian{}
	for rows.Next() {
		a, err := scanAntrian(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterasi antrian")
	}
	return list, nil
}

func (s *AntrianService) Get(ctx context.Context, id string) (*models.Antrian, error) {
	return s.findOne(ctx, goqu.Ex{"id": id}, "id "+id)
}

// FindTicket mencari tiket berdasarkan kode pada hari tertentu. Kode
// dibersihkan dari spasi dan dibandingkan tanpa membedakan huruf besar/kecil.
// jenis kosong berarti tidak difilter.
func (s *AntrianService) FindTicket(ctx context.Context, kode, jenis, hari string) (*models.Antrian, error) {
	kode = sequence.NormalizeKode(kode)
	where := goqu.Ex{"tanggal": hari, "kode": kode}
	if j := strings.ToUpper(strings.TrimSpace(jenis)); j != "" {
		where["jenis"] = j
	}
	return s.findOne(ctx, where, kode)
}

func (s *AntrianService) findOne(ctx context.Context, where goqu.Ex, key string) (*models.Antrian, error) {
	query, args, err := s.Store.Builder().From(tabelAntrian).Prepared(true).
		Select(kolomAntrian...).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build query antrian")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	a, err := scanAntrian(s.Store.DB.QueryRowContext(qctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.NotFoundError{Entity: "antrian", Key: key}
	}
	return a, err
}

// SetStatus memajukan status tiket. Update memakai compare-and-swap pada
// status lama sehingga dua petugas tidak bisa memindahkan tiket yang sama.
func (s *AntrianService) SetStatus(ctx context.Context, id string, status string) (*models.Antrian, error) {
	next := models.StatusAntrian(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, apperror.NewValidationError("status antrian tidak dikenal: "+status, "status")
	}

	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.Status.BisaKe(next) {
		return nil, &apperror.InvalidStateTransition{Entity: "antrian", ID: id, From: string(cur.Status), To: string(next)}
	}

	now := s.Clock.Sekarang()
	set := goqu.Record{"status": string(next)}
	switch next {
	case models.StatusCalled:
		set["called_at"] = now
		cur.CalledAt = &now
	case models.StatusCompleted:
		set["completed_at"] = now
		cur.CompletedAt = &now
	}

	query, args, err := s.Store.Builder().Update(tabelAntrian).Prepared(true).
		Set(set).
		Where(goqu.Ex{"id": id, "status": string(cur.Status)}).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build update antrian")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	res, err := s.Store.DB.ExecContext(qctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "update status antrian")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "cek update antrian")
	}
	if affected == 0 {
		// sudah dipindahkan sesi lain di antara baca dan tulis
		latest, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &apperror.InvalidStateTransition{Entity: "antrian", ID: id, From: string(latest.Status), To: string(next)}
	}

	cur.Status = next
	events.Emit(ctx, s.Events, events.AntrianStatus, cur)
	return cur, nil
}

// Stats menghitung jumlah tiket hari ini per status.
func (s *AntrianService) Stats(ctx context.Context, jenis *string) (*models.Statistik, error) {
	where := goqu.Ex{"tanggal": s.Clock.HariIni()}
	if jenis != nil && strings.TrimSpace(*jenis) != "" {
		where["jenis"] = strings.ToUpper(strings.TrimSpace(*jenis))
	}

	query, args, err := s.Store.Builder().From(tabelAntrian).Prepared(true).
		Select(goqu.C("status"), goqu.COUNT("*").As("jumlah")).
		Where(where).
		GroupBy("status").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build statistik antrian")
	}

	qctx, cancel := s.Store.Ctx(ctx)
	defer cancel()
	rows, err := s.Store.DB.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query statistik antrian")
	}
	defer rows.Close()

	st := &models.Statistik{}
	for rows.Next() {
		var status string
		var jumlah int
		if err := rows.Scan(&status, &jumlah); err != nil {
			return nil, errors.Wrap(err, "scan statistik antrian")
		}
		st.Total += jumlah
		switch models.StatusAntrian(status) {
		case models.StatusWaiting:
			st.Waiting = jumlah
		case models.StatusCalled:
			st.Called = jumlah
		case models.StatusCompleted:
			st.Completed = jumlah
		case models.StatusCancelled:
			st.Cancelled = jumlah
		}
	}
	return st, errors.Wrap(rows.Err(), "iterasi statistik antrian")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAntrian(row scanner) (*models.Antrian, error) {
	var (
		a         models.Antrian
		status    string
		idPasien  sql.NullString
		called    sql.NullTime
		completed sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Tanggal, &a.Jenis, &a.Nomor, &a.Kode, &idPasien, &status,
		&a.CreatedAt, &called, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan antrian")
	}
	a.Status = models.StatusAntrian(status)
	if idPasien.Valid {
		a.IDPasien = &idPasien.String
	}
	if called.Valid {
		t := called.Time
		a.CalledAt = &t
	}
	if completed.Valid {
		t := completed.Time
		a.CompletedAt = &t
	}
	return &a, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
