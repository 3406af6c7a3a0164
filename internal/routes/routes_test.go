package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
	"github.com/c14220110/poliklinik-antrian/pkg/storage/storagetest"
	"github.com/c14220110/poliklinik-antrian/pkg/utils"
)

const secret = "rahasia-test"

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func newClient(t *testing.T) *client {
	t.Helper()
	db := storagetest.NewSQLite(t)
	e := echo.New()
	Init(e, Dependencies{
		Store:            storage.NewStore(db, storage.SQLite, 5*time.Second),
		Allocator:        sequence.NewSQLAllocator(db, storage.SQLite, 5*time.Second),
		Clock:            waktu.Fixed(time.Date(2026, 10, 16, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))),
		Events:           events.Nop{},
		JWTSecret:        secret,
		APMJenis:         []string{"A", "B"},
		RegistrasiPrefix: "A",
	})

	tok, err := utils.GenerateJWTToken(secret, "K-1", "administrasi", "loket1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return &client{t: t, e: e, token: tok}
}

func (c *client) do(method, path, body string, auth bool) (int, envelope) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

const registrasiBody = `{"id_pasien":"P-9","jenis_kunjungan":"Rawat Jalan","jenis_pasien":"Umum","poli_tujuan":"Poli Umum"`

func TestAlurLengkap(t *testing.T) {
	c := newClient(t)

	// pasien mengambil tiket di APM
	code, env := c.do(http.MethodPost, "/api/apm/antrian", `{"jenis":"B","id_pasien":"P-9"}`, false)
	require.Equal(t, http.StatusCreated, code)
	var tiket struct{ Kode string }
	decode(t, env.Data, &tiket)
	require.Equal(t, "B001", tiket.Kode)

	// petugas memvalidasi tiket
	code, env = c.do(http.MethodPost, "/api/registrasi/validasi-antrian", `{"no_antrian":" b001 ","jenis":"B","id_pasien":"P-9"}`, true)
	require.Equal(t, http.StatusOK, code)
	var hasil struct{ Cocok bool }
	decode(t, env.Data, &hasil)
	assert.True(t, hasil.Cocok)

	// registrasi dengan tiket APM yang benar
	code, env = c.do(http.MethodPost, "/api/registrasi", registrasiBody+`,"kode_antrian_apm":"B001","jenis_antrian_apm":"B"}`, true)
	require.Equal(t, http.StatusCreated, code)
	var buat struct {
		Registrasi struct {
			IDRegistrasi     string `json:"id_registrasi"`
			NoAntrian        string `json:"no_antrian"`
			MetadataUserBuat string `json:"metadata_user_buat"`
		} `json:"registrasi"`
		ValidasiAntrian struct{ Cocok bool } `json:"validasi_antrian"`
	}
	decode(t, env.Data, &buat)
	assert.Equal(t, "A001", buat.Registrasi.NoAntrian)
	assert.Equal(t, "loket1", buat.Registrasi.MetadataUserBuat)
	assert.True(t, buat.ValidasiAntrian.Cocok)
	idReg := buat.Registrasi.IDRegistrasi

	code, _ = c.do(http.MethodGet, "/api/registrasi/nomor/a001?aktif=true", "", true)
	assert.Equal(t, http.StatusOK, code)

	// poli membuat kunjungan dan registrasi tertaut
	code, env = c.do(http.MethodPost, "/api/kunjungan", `{"id_pasien":"P-9","id_registrasi":"`+idReg+`","tgl_kunjungan":"2026-10-16","jenis_kunjungan":"Rawat Jalan","jenis_pasien":"Umum","unit_pelayanan":"Poli Umum","tenaga_medis_pj":"dr. Sari"}`, true)
	require.Equal(t, http.StatusCreated, code)
	var kunj struct {
		Kunjungan struct {
			IDKunjungan string `json:"id_kunjungan"`
		} `json:"kunjungan"`
		Ditautkan bool `json:"ditautkan"`
	}
	decode(t, env.Data, &kunj)
	assert.True(t, kunj.Ditautkan)

	code, env = c.do(http.MethodGet, "/api/registrasi/"+idReg, "", true)
	require.Equal(t, http.StatusOK, code)
	var reg struct {
		IDKunjungan      *string `json:"id_kunjungan"`
		StatusRegistrasi string  `json:"status_registrasi"`
	}
	decode(t, env.Data, &reg)
	require.NotNil(t, reg.IDKunjungan)
	assert.Equal(t, kunj.Kunjungan.IDKunjungan, *reg.IDKunjungan)
	assert.Equal(t, "Selesai", reg.StatusRegistrasi)

	// sudah selesai, tidak lagi aktif
	code, _ = c.do(http.MethodGet, "/api/registrasi/nomor/A001?aktif=true", "", true)
	assert.Equal(t, http.StatusNotFound, code)

	// menautkan ulang ke kunjungan lain ditolak
	code, _ = c.do(http.MethodPut, "/api/registrasi/"+idReg+"/kunjungan", `{"id_kunjungan":"K-lain"}`, true)
	assert.Equal(t, http.StatusConflict, code)

	// ulang dengan kunjungan yang sama tetap sukses
	code, _ = c.do(http.MethodPut, "/api/registrasi/"+idReg+"/kunjungan", `{"id_kunjungan":"`+kunj.Kunjungan.IDKunjungan+`"}`, true)
	assert.Equal(t, http.StatusOK, code)

	code, env = c.do(http.MethodGet, "/api/registrasi/pasien/P-9", "", true)
	require.Equal(t, http.StatusOK, code)
	var riwayat []map[string]interface{}
	decode(t, env.Data, &riwayat)
	assert.Len(t, riwayat, 1)
}

func TestRegistrasi_TiketTidakCocokTetapLanjut(t *testing.T) {
	c := newClient(t)

	code, env := c.do(http.MethodPost, "/api/registrasi", registrasiBody+`,"kode_antrian_apm":"B999"}`, true)
	require.Equal(t, http.StatusCreated, code)
	var buat struct {
		ValidasiAntrian struct {
			Cocok  bool
			Alasan string
		} `json:"validasi_antrian"`
	}
	decode(t, env.Data, &buat)
	assert.False(t, buat.ValidasiAntrian.Cocok)
	assert.NotEmpty(t, buat.ValidasiAntrian.Alasan)

	code, env = c.do(http.MethodPost, "/api/registrasi/validasi-antrian", `{"no_antrian":"B999"}`, true)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, env.Message, "tidak cocok")
}

func TestRegistrasi_Error(t *testing.T) {
	c := newClient(t)

	code, _ := c.do(http.MethodPost, "/api/registrasi", registrasiBody+`}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := c.do(http.MethodPost, "/api/registrasi", `{"id_pasien":"P-1"}`, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "poli_tujuan")

	code, _ = c.do(http.MethodGet, "/api/registrasi/tidak-ada", "", true)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = c.do(http.MethodPut, "/api/registrasi/tidak-ada/kunjungan", `{"id_kunjungan":"K-1"}`, true)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = c.do(http.MethodPost, "/api/registrasi", registrasiBody+`}`, true)
	require.Equal(t, http.StatusCreated, code)
	var buat struct {
		Registrasi struct {
			IDRegistrasi string `json:"id_registrasi"`
		} `json:"registrasi"`
	}
	decode(t, env.Data, &buat)

	code, _ = c.do(http.MethodPut, "/api/registrasi/"+buat.Registrasi.IDRegistrasi+"/kunjungan", `{"id_kunjungan":"K-fiktif"}`, true)
	assert.Equal(t, http.StatusNotFound, code, "kunjungan harus sudah ada")

	code, _ = c.do(http.MethodPut, "/api/registrasi/"+buat.Registrasi.IDRegistrasi+"/status", `{"status":"Dipanggil"}`, true)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodPut, "/api/registrasi/"+buat.Registrasi.IDRegistrasi+"/status", `{"status":"Menunggu"}`, true)
	assert.Equal(t, http.StatusConflict, code)

	code, env = c.do(http.MethodGet, "/api/registrasi/today", "", true)
	assert.Equal(t, http.StatusOK, code)
	var list []map[string]interface{}
	decode(t, env.Data, &list)
	assert.Len(t, list, 1)
}

func TestRegistrasi_RoleDitolak(t *testing.T) {
	c := newClient(t)
	tok, err := utils.GenerateJWTToken(secret, "K-2", "kasir", "kasir1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	c.token = tok

	code, _ := c.do(http.MethodPost, "/api/registrasi", registrasiBody+`}`, true)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodPost, "/api/kunjungan", `{}`, true)
	assert.Equal(t, http.StatusForbidden, code)

	// daftar hari ini boleh dibaca semua petugas
	code, _ = c.do(http.MethodGet, "/api/registrasi/today", "", true)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	code, env := c.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", env.Message)
}
