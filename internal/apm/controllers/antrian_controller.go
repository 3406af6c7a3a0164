package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/c14220110/poliklinik-antrian/internal/apm/models"
	"github.com/c14220110/poliklinik-antrian/internal/apm/services"
	"github.com/c14220110/poliklinik-antrian/internal/common/response"
)

type AntrianController struct {
	Service *services.AntrianService
}

func NewAntrianController(service *services.AntrianService) *AntrianController {
	return &AntrianController{Service: service}
}

// AmbilAntrian dipanggil mesin APM saat pasien menekan tombol loket.
func (ac *AntrianController) AmbilAntrian(c echo.Context) error {
	var req models.AmbilAntrianRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	antrian, err := ac.Service.Issue(c.Request().Context(), req.Jenis, req.IDPasien)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusCreated, "Nomor antrian berhasil dibuat", antrian)
}

func (ac *AntrianController) ListHariIni(c echo.Context) error {
	list, err := ac.Service.ListToday(c.Request().Context(), queryOpsional(c, "jenis"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Daftar antrian hari ini", list)
}

func (ac *AntrianController) Statistik(c echo.Context) error {
	st, err := ac.Service.Stats(c.Request().Context(), queryOpsional(c, "jenis"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Statistik antrian hari ini", st)
}

// UpdateStatus dipakai petugas untuk memanggil, menyelesaikan, atau membatalkan tiket.
func (ac *AntrianController) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.JSON(c, http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}

	antrian, err := ac.Service.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, "Status antrian diperbarui", antrian)
}

func queryOpsional(c echo.Context, name string) *string {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}
