package models

import "time"

// Kunjungan dibuat poli saat pasien diperiksa.
type Kunjungan struct {
	IDKunjungan      string    `json:"id_kunjungan"`
	IDPasien         string    `json:"id_pasien"`
	IDRegistrasi     *string   `json:"id_registrasi"`
	TglKunjungan     time.Time `json:"tgl_kunjungan"`
	JenisKunjungan   string    `json:"jenis_kunjungan"`
	JenisPasien      string    `json:"jenis_pasien"`
	UnitPelayanan    string    `json:"unit_pelayanan"`
	TenagaMedisPJ    string    `json:"tenaga_medis_pj"`
	KeluhanUtama     string    `json:"keluhan_utama"`
	MetadataUserBuat string    `json:"metadata_user_buat"`
	CreatedAt        time.Time `json:"created_at"`
}

type BuatKunjunganRequest struct {
	IDPasien       string  `json:"id_pasien"`
	IDRegistrasi   *string `json:"id_registrasi"`
	TglKunjungan   string  `json:"tgl_kunjungan"`
	JenisKunjungan string  `json:"jenis_kunjungan"`
	JenisPasien    string  `json:"jenis_pasien"`
	UnitPelayanan  string  `json:"unit_pelayanan"`
	TenagaMedisPJ  string  `json:"tenaga_medis_pj"`
	KeluhanUtama   string  `json:"keluhan_utama"`
}

// HasilKunjungan: kunjungan selalu tersimpan bila tidak ada error.
// PeringatanTautan terisi bila registrasi gagal ditautkan.
type HasilKunjungan struct {
	Kunjungan        *Kunjungan `json:"kunjungan"`
	Ditautkan        bool       `json:"ditautkan"`
	PeringatanTautan string     `json:"peringatan_tautan,omitempty"`
}
