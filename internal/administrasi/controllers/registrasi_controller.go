package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/c14220110/poliklinik-antrian/internal/administrasi/models"
	"github.com/c14220110/poliklinik-antrian/internal/administrasi/services"
	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/common/response"
)

type RegistrasiController struct {
	Pendaftaran *services.PendaftaranService
	Pencocokan  *services.PencocokanService
	Penautan    *services.PenautanService
}

func NewRegistrasiController(pendaftaran *services.PendaftaranService, pencocokan *services.PencocokanService, penautan *services.PenautanService) *RegistrasiController {
	return &RegistrasiController{Pendaftaran: pendaftaran, Pencocokan: pencocokan, Penautan: penautan}
}

// BuatRegistrasi mendaftarkan kunjungan pasien. Bila pasien membawa tiket APM,
// tiket itu ikut divalidasi tetapi hasilnya tidak menghalangi pendaftaran.
func (rc *RegistrasiController) BuatRegistrasi(c echo.Context) error {
	var req models.BuatRegistrasiRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	pembuat := ""
	if claims, ok := middlewares.ClaimsFrom(c); ok {
		pembuat = claims.Username
	}

	ctx := c.Request().Context()
	reg, err := rc.Pendaftaran.Create(ctx, req, pembuat)
	if err != nil {
		return response.Error(c, err)
	}

	data := map[string]interface{}{"registrasi": reg}
	if req.KodeAntrianAPM != "" {
		data["validasi_antrian"] = rc.cocokkan(c, req.KodeAntrianAPM, req.JenisAntrianAPM, &req.IDPasien)
	}
	return response.JSON(c, http.StatusCreated, "Registrasi berhasil dibuat", data)
}

func (rc *RegistrasiController) ListHariIni(c echo.Context) error {
	list, err := rc.Pendaftaran.ListToday(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Daftar registrasi hari ini", list)
}

func (rc *RegistrasiController) GetRegistrasi(c echo.Context) error {
	reg, err := rc.Pendaftaran.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Detail registrasi", reg)
}

// GetByNomorAntrian: ?aktif=true hanya mencari registrasi yang belum Selesai/Batal.
func (rc *RegistrasiController) GetByNomorAntrian(c echo.Context) error {
	ctx := c.Request().Context()
	kode := c.Param("kode")

	var (
		reg *models.Registrasi
		err error
	)
	if c.QueryParam("aktif") == "true" {
		reg, err = rc.Pendaftaran.GetActiveByTicketCode(ctx, kode)
	} else {
		reg, err = rc.Pendaftaran.GetByTicketCode(ctx, kode)
	}
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Detail registrasi", reg)
}

func (rc *RegistrasiController) RiwayatPasien(c echo.Context) error {
	list, err := rc.Pendaftaran.ListByPasien(c.Request().Context(), c.Param("id_pasien"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Riwayat registrasi pasien", list)
}

func (rc *RegistrasiController) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	reg, err := rc.Pendaftaran.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Status registrasi diperbarui", reg)
}

// ValidasiAntrian selalu menjawab 200. Kegagalan store dilaporkan sebagai
// cocok=false supaya petugas tetap bisa melanjutkan.
func (rc *RegistrasiController) ValidasiAntrian(c echo.Context) error {
	var req models.ValidasiAntrianRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	hasil := rc.cocokkan(c, req.Kode, req.Jenis, req.IDPasien)
	msg := "Nomor antrian valid"
	if !hasil.Cocok {
		msg = "Nomor antrian tidak cocok. Anda masih bisa melanjutkan."
	}
	return response.JSON(c, http.StatusOK, msg, hasil)
}

func (rc *RegistrasiController) cocokkan(c echo.Context, kode, jenis string, idPasien *string) *models.HasilValidasi {
	hasil, err := rc.Pencocokan.Cocokkan(c.Request().Context(), kode, jenis, idPasien)
	if err != nil {
		log.Warn().Err(err).Str("kode", kode).Msg("validasi nomor antrian gagal")
		return &models.HasilValidasi{Alasan: "gagal validasi nomor antrian"}
	}
	return hasil
}

func (rc *RegistrasiController) TautkanKunjungan(c echo.Context) error {
	var req models.TautkanKunjunganRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if err := rc.Penautan.Tautkan(ctx, id, req.IDKunjungan); err != nil {
		return response.Error(c, err)
	}

	reg, err := rc.Pendaftaran.Get(ctx, id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Registrasi berhasil ditautkan ke kunjungan", reg)
}
