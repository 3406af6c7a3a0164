package models

import (
	"strings"
	"time"

	apmModels "github.com/c14220110/poliklinik-antrian/internal/apm/models"
)

type StatusRegistrasi string

const (
	StatusMenunggu  StatusRegistrasi = "Menunggu"
	StatusDipanggil StatusRegistrasi = "Dipanggil"
	StatusSelesai   StatusRegistrasi = "Selesai"
	StatusBatal     StatusRegistrasi = "Batal"
)

var transisiRegistrasi = map[StatusRegistrasi][]StatusRegistrasi{
	StatusMenunggu:  {StatusDipanggil, StatusSelesai, StatusBatal},
	StatusDipanggil: {StatusSelesai, StatusBatal},
}

// ParseStatusRegistrasi menerima nama status tanpa membedakan huruf besar/kecil.
func ParseStatusRegistrasi(s string) (StatusRegistrasi, bool) {
	for _, st := range []StatusRegistrasi{StatusMenunggu, StatusDipanggil, StatusSelesai, StatusBatal} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s StatusRegistrasi) BisaKe(next StatusRegistrasi) bool {
	for _, t := range transisiRegistrasi[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Registrasi kunjungan pasien di loket pendaftaran. IDKunjungan terisi
// hanya bila status sudah Selesai.
type Registrasi struct {
	IDRegistrasi     string           `json:"id_registrasi"`
	IDPasien         string           `json:"id_pasien"`
	IDKunjungan      *string          `json:"id_kunjungan"`
	NoAntrian        string           `json:"no_antrian"`
	Nomor            int              `json:"nomor"`
	TglRegistrasi    string           `json:"tgl_registrasi"`
	WaktuRegistrasi  time.Time        `json:"waktu_registrasi"`
	JenisKunjungan   string           `json:"jenis_kunjungan"`
	JenisPasien      string           `json:"jenis_pasien"`
	PoliTujuan       string           `json:"poli_tujuan"`
	KeluhanUtama     string           `json:"keluhan_utama"`
	StatusRegistrasi StatusRegistrasi `json:"status_registrasi"`
	MetadataUserBuat string           `json:"metadata_user_buat"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type BuatRegistrasiRequest struct {
	IDPasien       string `json:"id_pasien"`
	JenisKunjungan string `json:"jenis_kunjungan"`
	JenisPasien    string `json:"jenis_pasien"`
	PoliTujuan     string `json:"poli_tujuan"`
	KeluhanUtama   string `json:"keluhan_utama"`
	// Nomor tiket APM yang dibawa pasien, opsional. Hanya divalidasi, tidak disimpan.
	KodeAntrianAPM  string `json:"kode_antrian_apm"`
	JenisAntrianAPM string `json:"jenis_antrian_apm"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ValidasiAntrianRequest struct {
	Kode     string  `json:"no_antrian"`
	Jenis    string  `json:"jenis"`
	IDPasien *string `json:"id_pasien"`
}

// HasilValidasi adalah jawaban pencocokan tiket APM. Cocok=false bukan error;
// petugas tetap boleh melanjutkan pendaftaran.
type HasilValidasi struct {
	Cocok   bool               `json:"cocok"`
	Alasan  string             `json:"alasan,omitempty"`
	Antrian *apmModels.Antrian `json:"antrian,omitempty"`
}

type TautkanKunjunganRequest struct {
	IDKunjungan string `json:"id_kunjungan"`
}
