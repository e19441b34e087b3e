package repositories

import (
	"database/sql"
	"strings"

	"golang.org/x/sync/errgroup"

	"hki-backend/internal/domain"
)

// MasterRepository membaca/menulis tabel lookup (jenis_hki, status_hki,
// pengusul, kelas_hki). Setiap entitas punya operasi bertipe sendiri;
// tidak ada dispatch nama tabel dari string request.
type MasterRepository struct {
	DB *sql.DB
}

func (r MasterRepository) ListJenis() ([]domain.JenisHki, error) {
	rows, err := r.DB.Query(`SELECT id_jenis_hki, nama_jenis_hki FROM jenis_hki ORDER BY nama_jenis_hki ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JenisHki{}
	for rows.Next() {
		var j domain.JenisHki
		if err := rows.Scan(&j.ID, &j.Nama); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r MasterRepository) ListStatus() ([]domain.StatusHki, error) {
	rows, err := r.DB.Query(`SELECT id_status, nama_status FROM status_hki ORDER BY id_status ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StatusHki{}
	for rows.Next() {
		var s domain.StatusHki
		if err := rows.Scan(&s.ID, &s.Nama); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r MasterRepository) ListPengusul() ([]domain.Pengusul, error) {
	rows, err := r.DB.Query(`SELECT id_pengusul, nama_opd FROM pengusul ORDER BY nama_opd ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Pengusul{}
	for rows.Next() {
		var p domain.Pengusul
		if err := rows.Scan(&p.ID, &p.NamaOpd); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r MasterRepository) ListKelas() ([]domain.KelasHki, error) {
	rows, err := r.DB.Query(`SELECT id_kelas, nama_kelas, COALESCE(tipe, '') FROM kelas_hki ORDER BY id_kelas ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.KelasHki{}
	for rows.Next() {
		var k domain.KelasHki
		if err := rows.Scan(&k.ID, &k.Nama, &k.Tipe); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r MasterRepository) ListTahun() ([]int64, error) {
	rows, err := r.DB.Query(`SELECT DISTINCT tahun_fasilitasi FROM hki WHERE tahun_fasilitasi IS NOT NULL ORDER BY tahun_fasilitasi DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var y int64
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// FormOptions mengambil semua daftar lookup sekaligus. Lima query-nya tidak
// saling bergantung sehingga dijalankan paralel.
func (r MasterRepository) FormOptions() (domain.FormOptions, error) {
	var opts domain.FormOptions

	var g errgroup.Group
	g.Go(func() (err error) { opts.JenisOptions, err = r.ListJenis(); return })
	g.Go(func() (err error) { opts.StatusOptions, err = r.ListStatus(); return })
	g.Go(func() (err error) { opts.PengusulOptions, err = r.ListPengusul(); return })
	g.Go(func() (err error) { opts.KelasOptions, err = r.ListKelas(); return })
	g.Go(func() (err error) { opts.TahunOptions, err = r.ListTahun(); return })

	if err := g.Wait(); err != nil {
		return domain.FormOptions{}, err
	}
	return opts, nil
}

func (r MasterRepository) CreateJenis(nama string) (domain.JenisHki, error) {
	nama = strings.TrimSpace(nama)
	if nama == "" {
		return domain.JenisHki{}, domain.ValidationError{Field: "nama_jenis_hki", Msg: "tidak boleh kosong"}
	}
	res, err := r.DB.Exec(`INSERT INTO jenis_hki (nama_jenis_hki) VALUES (?)`, nama)
	if err != nil {
		return domain.JenisHki{}, wrapDuplicate(err, "jenis HKI")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.JenisHki{}, err
	}
	return domain.JenisHki{ID: id, Nama: nama}, nil
}

func (r MasterRepository) CreatePengusul(namaOpd string) (domain.Pengusul, error) {
	namaOpd = strings.TrimSpace(namaOpd)
	if namaOpd == "" {
		return domain.Pengusul{}, domain.ValidationError{Field: "nama_opd", Msg: "tidak boleh kosong"}
	}
	res, err := r.DB.Exec(`INSERT INTO pengusul (nama_opd) VALUES (?)`, namaOpd)
	if err != nil {
		return domain.Pengusul{}, wrapDuplicate(err, "pengusul")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Pengusul{}, err
	}
	return domain.Pengusul{ID: id, NamaOpd: namaOpd}, nil
}

// CreateKelas memakai id eksplisit karena nomor kelas HKI mengikuti
// klasifikasi Nice, bukan auto increment.
func (r MasterRepository) CreateKelas(k domain.KelasHki) (domain.KelasHki, error) {
	k.Nama = strings.TrimSpace(k.Nama)
	k.Tipe = strings.TrimSpace(k.Tipe)
	if k.ID <= 0 {
		return domain.KelasHki{}, domain.ValidationError{Field: "id_kelas", Msg: "harus angka positif"}
	}
	if k.Nama == "" {
		return domain.KelasHki{}, domain.ValidationError{Field: "nama_kelas", Msg: "tidak boleh kosong"}
	}

	var exists int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM kelas_hki WHERE id_kelas = ?`, k.ID).Scan(&exists); err != nil {
		return domain.KelasHki{}, err
	}
	if exists > 0 {
		return domain.KelasHki{}, domain.ConflictError{Resource: "kelas HKI", Msg: "id kelas sudah digunakan"}
	}

	if _, err := r.DB.Exec(`INSERT INTO kelas_hki (id_kelas, nama_kelas, tipe) VALUES (?, ?, ?)`, k.ID, k.Nama, k.Tipe); err != nil {
		return domain.KelasHki{}, wrapDuplicate(err, "kelas HKI")
	}
	return k, nil
}

// wrapDuplicate memetakan pelanggaran unique key MySQL (1062) ke ConflictError.
func wrapDuplicate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "Error 1062") || strings.Contains(err.Error(), "Duplicate entry") {
		return domain.ConflictError{Resource: resource, Msg: "data dengan nama/id tersebut sudah ada", Err: err}
	}
	return err
}
