package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	adminControllers "github.com/c14220110/poliklinik-antrian/internal/administrasi/controllers"
	adminServices "github.com/c14220110/poliklinik-antrian/internal/administrasi/services"
	apmControllers "github.com/c14220110/poliklinik-antrian/internal/apm/controllers"
	apmServices "github.com/c14220110/poliklinik-antrian/internal/apm/services"
	"github.com/c14220110/poliklinik-antrian/internal/common/events"
	"github.com/c14220110/poliklinik-antrian/internal/common/middlewares"
	"github.com/c14220110/poliklinik-antrian/internal/common/response"
	"github.com/c14220110/poliklinik-antrian/internal/common/sequence"
	"github.com/c14220110/poliklinik-antrian/internal/common/waktu"
	dokterControllers "github.com/c14220110/poliklinik-antrian/internal/dokter/controllers"
	dokterServices "github.com/c14220110/poliklinik-antrian/internal/dokter/services"
	"github.com/c14220110/poliklinik-antrian/pkg/storage"
	"github.com/c14220110/poliklinik-antrian/ws"
)

// Dependencies adalah semua yang dibutuhkan untuk membangun service.
type Dependencies struct {
	Store            *storage.Store
	Allocator        sequence.Allocator
	Clock            waktu.Clock
	Events           events.Publisher
	Hub              *ws.Hub
	JWTSecret        string
	APMJenis         []string
	RegistrasiPrefix string
}

// Role petugas yang dikenali dari klaim JWT.
const (
	RoleAdministrasi = "administrasi"
	RoleDokter       = "dokter"
	RolePerawat      = "perawat"
)

// Init menginisialisasi semua routes menggunakan Echo framework
func Init(e *echo.Echo, d Dependencies) {
	// Inisialisasi service
	antrianService := apmServices.NewAntrianService(d.Store, d.Allocator, d.Clock, d.Events, d.APMJenis)
	pendaftaranService := adminServices.NewPendaftaranService(d.Store, d.Allocator, d.Clock, d.Events, d.RegistrasiPrefix)
	pencocokanService := adminServices.NewPencocokanService(antrianService, d.Clock)
	penautanService := adminServices.NewPenautanService(d.Store, d.Clock, d.Events, pendaftaranService)
	kunjunganService := dokterServices.NewKunjunganService(d.Store, d.Clock, d.Events, penautanService)

	// Inisialisasi controller dengan service yang sesuai
	antrianController := apmControllers.NewAntrianController(antrianService)
	registrasiController := adminControllers.NewRegistrasiController(pendaftaranService, pencocokanService, penautanService)
	kunjunganController := dokterControllers.NewKunjunganController(kunjunganService)

	jwt := middlewares.JWTMiddleware(d.JWTSecret)
	loket := middlewares.RequireRole(RoleAdministrasi)
	petugas := middlewares.RequireRole(RoleAdministrasi, RoleDokter, RolePerawat)

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := d.Store.Ctx(c.Request().Context())
		defer cancel()
		if err := d.Store.DB.PingContext(ctx); err != nil {
			return response.JSON(c, http.StatusServiceUnavailable, "database tidak tersedia: "+err.Error(), nil)
		}
		return response.JSON(c, http.StatusOK, "ok", nil)
	})
	if d.Hub != nil {
		e.GET("/ws", ws.ServeWS(d.Hub))
	}

	// Grup API utama
	api := e.Group("/api")

	// **Grup APM** (mesin antrian tidak login)
	apm := api.Group("/apm")
	apm.POST("/antrian", antrianController.AmbilAntrian)
	apm.GET("/antrian", antrianController.ListHariIni)
	apm.GET("/antrian/statistik", antrianController.Statistik)
	apm.PUT("/antrian/:id/status", antrianController.UpdateStatus, jwt, petugas)

	// **Grup Registrasi**
	registrasi := api.Group("/registrasi", jwt)
	registrasi.POST("", registrasiController.BuatRegistrasi, loket)
	registrasi.GET("/today", registrasiController.ListHariIni)
	registrasi.GET("/nomor/:kode", registrasiController.GetByNomorAntrian)
	registrasi.GET("/pasien/:id_pasien", registrasiController.RiwayatPasien)
	registrasi.POST("/validasi-antrian", registrasiController.ValidasiAntrian)
	registrasi.GET("/:id", registrasiController.GetRegistrasi)
	registrasi.PUT("/:id/status", registrasiController.UpdateStatus, petugas)
	registrasi.PUT("/:id/kunjungan", registrasiController.TautkanKunjungan, petugas)

	// **Grup Kunjungan**
	kunjungan := api.Group("/kunjungan", jwt, petugas)
	kunjungan.POST("", kunjunganController.BuatKunjungan)
	kunjungan.GET("/:id", kunjunganController.GetKunjungan)
}
