package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/common/response"
	"github.com/c14220110/poliklinik-antrian/internal/dokter/models"
	"github.com/c14220110/poliklinik-antrian/internal/dokter/services"
)

type KunjunganController struct {
	Service *services.KunjunganService
}

func NewKunjunganController(service *services.KunjunganService) *KunjunganController {
	return &KunjunganController{Service: service}
}

// BuatKunjungan menyimpan kunjungan hasil pemeriksaan. Gagal menautkan
// registrasi tetap dijawab 201 dengan peringatan.
func (kc *KunjunganController) BuatKunjungan(c echo.Context) error {
	var req models.BuatKunjunganRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	pembuat := ""
	if claims, ok := middlewares.ClaimsFrom(c); ok {
		pembuat = claims.Username
	}

	hasil, err := kc.Service.BuatKunjungan(c.Request().Context(), req, pembuat)
	if err != nil {
		return response.Error(c, err)
	}

	msg := "Kunjungan berhasil dibuat"
	if hasil.PeringatanTautan != "" {
		msg = "Kunjungan berhasil dibuat, tetapi registrasi gagal ditautkan"
	}
	return response.JSON(c, http.StatusCreated, msg, hasil)
}

func (kc *KunjunganController) GetKunjungan(c echo.Context) error {
	k, err := kc.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Detail kunjungan", k)
}
