package domain

// Pemohon adalah pemilik/pemohon hak kekayaan intelektual.
type Pemohon struct {
	ID     int64  `json:"id_pemohon"`
	Nama   string `json:"nama_pemohon"`
	Alamat string `json:"alamat,omitempty"`
}

type JenisHki struct {
	ID   int64  `json:"id_jenis_hki"`
	Nama string `json:"nama_jenis_hki"`
}

type StatusHki struct {
	ID   int64  `json:"id_status"`
	Nama string `json:"nama_status"`
}

// Pengusul adalah OPD (organisasi perangkat daerah) yang mengusulkan fasilitasi.
type Pengusul struct {
	ID      int64  `json:"id_pengusul"`
	NamaOpd string `json:"nama_opd"`
}

type KelasHki struct {
	ID   int64  `json:"id_kelas"`
	Nama string `json:"nama_kelas"`
	Tipe string `json:"tipe"`
}

// HkiEntry adalah proyeksi satu record HKI beserta seluruh entitas lookup-nya,
// bentuk yang dikirim ke client. Proyeksi read-only: mutasi selalu lewat service.
type HkiEntry struct {
	ID              int64      `json:"id_hki"`
	NamaHki         string     `json:"nama_hki"`
	JenisProduk     string     `json:"jenis_produk,omitempty"`
	TahunFasilitasi int64      `json:"tahun_fasilitasi,omitempty"`
	SertifikatPdf   string     `json:"sertifikat_pdf,omitempty"`
	Keterangan      string     `json:"keterangan,omitempty"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at,omitempty"`
	Pemohon         *Pemohon   `json:"pemohon,omitempty"`
	Jenis           *JenisHki  `json:"jenis,omitempty"`
	Status          *StatusHki `json:"status_hki,omitempty"`
	Pengusul        *Pengusul  `json:"pengusul,omitempty"`
	Kelas           *KelasHki  `json:"kelas,omitempty"`
}

// FormOptions berisi semua daftar lookup untuk filter dan form di dashboard.
type FormOptions struct {
	JenisOptions    []JenisHki  `json:"jenis_options"`
	StatusOptions   []StatusHki `json:"status_options"`
	PengusulOptions []Pengusul  `json:"pengusul_options"`
	KelasOptions    []KelasHki  `json:"kelas_options"`
	TahunOptions    []int64     `json:"tahun_options"`
}
