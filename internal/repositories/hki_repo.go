package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"hki-backend/internal/domain"
	intdb "hki-backend/internal/db"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// ListFilter adalah parameter list query yang sudah dinormalisasi:
// pencarian teks bebas, filter equality, sort, dan pagination.
type ListFilter struct {
	Search     string
	JenisID    int64
	StatusID   int64
	Year       int64
	PengusulID int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// sortColumns memetakan nama sort yang diekspos API ke kolom sebenarnya.
// nama_pemohon sengaja menunjuk tabel join, jalur sort yang berbeda dari
// kolom tabel utama.
var sortColumns = map[string]string{
	"created_at":       "h.created_at",
	"updated_at":       "h.updated_at",
	"nama_hki":         "h.nama_hki",
	"jenis_produk":     "h.jenis_produk",
	"tahun_fasilitasi": "h.tahun_fasilitasi",
	"nama_pemohon":     "p.nama_pemohon",
}

// Normalize mengisi default dan memvalidasi bentuk filter.
// Filter yang tidak valid ditolak sebelum query apa pun dijalankan.
func (f *ListFilter) Normalize() error {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	f.Search = strings.TrimSpace(f.Search)

	if f.Page < 1 {
		return domain.ValidationError{Field: "page", Msg: "harus >= 1"}
	}
	if f.PageSize < 1 || f.PageSize > maxPageSize {
		return domain.ValidationError{Field: "pageSize", Msg: fmt.Sprintf("harus antara 1 dan %d", maxPageSize)}
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		return domain.ValidationError{Field: "sortOrder", Msg: "harus asc atau desc"}
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		return domain.ValidationError{Field: "sortBy", Msg: "kolom sort tidak dikenal"}
	}
	for field, v := range map[string]int64{
		"jenisId":    f.JenisID,
		"statusId":   f.StatusID,
		"year":       f.Year,
		"pengusulId": f.PengusulID,
	} {
		if v < 0 {
			return domain.ValidationError{Field: field, Msg: "harus angka positif"}
		}
	}
	return nil
}

// Key menghasilkan representasi kanonik filter, dipakai sebagai cache key
// di sisi client dan untuk logging.
func (f ListFilter) Key() string {
	return fmt.Sprintf("search=%s&jenisId=%d&statusId=%d&year=%d&pengusulId=%d&page=%d&pageSize=%d&sortBy=%s&sortOrder=%s",
		f.Search, f.JenisID, f.StatusID, f.Year, f.PengusulID, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

// ListResult adalah hasil satu halaman beserta total sebelum pagination.
type ListResult struct {
	Data       []domain.HkiEntry `json:"data"`
	TotalCount int64             `json:"totalCount"`
}

// HkiCreate berisi field record utama saat insert/update.
type HkiCreate struct {
	NamaHki         string
	JenisProduk     string
	TahunFasilitasi int64
	Keterangan      string
	IDPemohon       int64
	IDJenisHki      int64
	IDStatus        int64
	IDPengusul      int64
	IDKelas         int64
}

type HkiRepository struct {
	DB *sql.DB
}

const entrySelect = `
		SELECT
			h.id_hki,
			h.nama_hki,
			COALESCE(h.jenis_produk, ''),
			COALESCE(h.tahun_fasilitasi, 0),
			COALESCE(h.sertifikat_pdf, ''),
			COALESCE(h.keterangan, ''),
			COALESCE(h.created_at, ''),
			COALESCE(h.updated_at, ''),
			COALESCE(p.id_pemohon, 0),
			COALESCE(p.nama_pemohon, ''),
			COALESCE(p.alamat, ''),
			COALESCE(j.id_jenis_hki, 0),
			COALESCE(j.nama_jenis_hki, ''),
			COALESCE(s.id_status, 0),
			COALESCE(s.nama_status, ''),
			COALESCE(g.id_pengusul, 0),
			COALESCE(g.nama_opd, ''),
			COALESCE(k.id_kelas, 0),
			COALESCE(k.nama_kelas, ''),
			COALESCE(k.tipe, '')
		FROM hki h
		LEFT JOIN pemohon p ON p.id_pemohon = h.id_pemohon
		LEFT JOIN jenis_hki j ON j.id_jenis_hki = h.id_jenis_hki
		LEFT JOIN status_hki s ON s.id_status = h.id_status
		LEFT JOIN pengusul g ON g.id_pengusul = h.id_pengusul
		LEFT JOIN kelas_hki k ON k.id_kelas = h.id_kelas`

// Search menjalankan list query sesuai filter: predikat OR untuk teks bebas
// (nama_hki, jenis_produk, dan id pemohon hasil resolve), predikat AND untuk
// equality, lalu COUNT terpisah yang tidak terpengaruh pagination.
func (r HkiRepository) Search(f ListFilter) (ListResult, error) {
	out := ListResult{Data: []domain.HkiEntry{}}
	db := r.DB
	if db == nil {
		return out, fmt.Errorf("db nil")
	}

	conds := []string{}
	args := []any{}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"

		// MySQL tidak bisa meng-OR-kan predikat join di sini tanpa subquery;
		// resolve dulu id pemohon yang cocok lalu lipat jadi IN (...).
		ids, err := r.matchingPemohonIDs(pattern)
		if err != nil {
			return out, fmt.Errorf("gagal resolve pemohon untuk pencarian: %w", err)
		}

		ors := []string{"LOWER(h.nama_hki) LIKE ?", "LOWER(h.jenis_produk) LIKE ?"}
		args = append(args, pattern, pattern)
		if len(ids) > 0 {
			ors = append(ors, "h.id_pemohon IN ("+placeholders(len(ids))+")")
			for _, id := range ids {
				args = append(args, id)
			}
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	addEq := func(col string, v int64) {
		if v > 0 {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	addEq("h.id_jenis_hki", f.JenisID)
	addEq("h.id_status", f.StatusID)
	addEq("h.tahun_fasilitasi", f.Year)
	addEq("h.id_pengusul", f.PengusulID)

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM hki h" + where
	if err := db.QueryRow(countQuery, args...).Scan(&out.TotalCount); err != nil {
		return out, fmt.Errorf("gagal menghitung total data: %w", err)
	}

	order := sortColumns[f.SortBy]
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}
	offset := (f.Page - 1) * f.PageSize

	dataQuery := entrySelect + where +
		fmt.Sprintf(" ORDER BY %s %s, h.id_hki DESC LIMIT ? OFFSET ?", order, dir)
	dataArgs := append(append([]any{}, args...), f.PageSize, offset)

	rows, err := db.Query(dataQuery, dataArgs...)
	if err != nil {
		return out, fmt.Errorf("gagal mengambil data hki: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return out, fmt.Errorf("gagal membaca baris hki: %w", err)
		}
		out.Data = append(out.Data, entry)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("gagal membaca data hki: %w", err)
	}
	return out, nil
}

func (r HkiRepository) matchingPemohonIDs(pattern string) ([]int64, error) {
	rows, err := r.DB.Query(`SELECT id_pemohon FROM pemohon WHERE LOWER(nama_pemohon) LIKE ?`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetEntryByID mengambil satu record beserta seluruh lookup join-nya.
func (r HkiRepository) GetEntryByID(id int64) (domain.HkiEntry, error) {
	rows, err := r.DB.Query(entrySelect+" WHERE h.id_hki = ?", id)
	if err != nil {
		return domain.HkiEntry{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.HkiEntry{}, err
		}
		return domain.HkiEntry{}, domain.NotFoundError{Resource: "data HKI"}
	}
	return scanEntry(rows)
}

// Insert menulis record baru dan mengembalikan id-nya.
func (r HkiRepository) Insert(in HkiCreate) (int64, error) {
	res, err := r.DB.Exec(`
		INSERT INTO hki
			(nama_hki, jenis_produk, tahun_fasilitasi, keterangan,
			 id_pemohon, id_jenis_hki, id_status, id_pengusul, id_kelas,
			 created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		in.NamaHki,
		intdb.NullIfEmpty(in.JenisProduk),
		in.TahunFasilitasi,
		intdb.NullIfEmpty(in.Keterangan),
		in.IDPemohon,
		in.IDJenisHki,
		in.IDStatus,
		in.IDPengusul,
		nullIfZero(in.IDKelas),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update menimpa field record; pemanggil sudah memvalidasi input.
func (r HkiRepository) Update(id int64, in HkiCreate) error {
	res, err := r.DB.Exec(`
		UPDATE hki SET
			nama_hki = ?, jenis_produk = ?, tahun_fasilitasi = ?, keterangan = ?,
			id_pemohon = ?, id_jenis_hki = ?, id_status = ?, id_pengusul = ?, id_kelas = ?,
			updated_at = NOW()
		WHERE id_hki = ?`,
		in.NamaHki,
		intdb.NullIfEmpty(in.JenisProduk),
		in.TahunFasilitasi,
		intdb.NullIfEmpty(in.Keterangan),
		in.IDPemohon,
		in.IDJenisHki,
		in.IDStatus,
		in.IDPengusul,
		nullIfZero(in.IDKelas),
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Bisa juga berarti nilai tak berubah; pastikan barisnya memang ada.
		var exists int64
		if err := r.DB.QueryRow(`SELECT COUNT(*) FROM hki WHERE id_hki = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.NotFoundError{Resource: "data HKI"}
		}
	}
	return nil
}

// UpdateStatus mengganti status satu record dan mengembalikan nama status baru.
func (r HkiRepository) UpdateStatus(id, statusID int64) (string, error) {
	var statusName string
	if err := r.DB.QueryRow(`SELECT nama_status FROM status_hki WHERE id_status = ?`, statusID).Scan(&statusName); err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ValidationError{Field: "statusId", Msg: "status tidak dikenal"}
		}
		return "", err
	}

	res, err := r.DB.Exec(`UPDATE hki SET id_status = ?, updated_at = NOW() WHERE id_hki = ?`, statusID, id)
	if err != nil {
		return "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		var exists int64
		if err := r.DB.QueryRow(`SELECT COUNT(*) FROM hki WHERE id_hki = ?`, id).Scan(&exists); err != nil {
			return "", err
		}
		if exists == 0 {
			return "", domain.NotFoundError{Resource: "data HKI"}
		}
	}
	return statusName, nil
}

// SetSertifikat menautkan path file sertifikat ke record.
func (r HkiRepository) SetSertifikat(id int64, path string) error {
	_, err := r.DB.Exec(`UPDATE hki SET sertifikat_pdf = ?, updated_at = NOW() WHERE id_hki = ?`, path, id)
	return err
}

// Delete menghapus satu record (dipakai jalur kompensasi create).
func (r HkiRepository) Delete(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM hki WHERE id_hki = ?`, id)
	return err
}

// SertifikatPaths mengambil path sertifikat non-kosong dari sekumpulan id,
// untuk pembersihan blob saat bulk delete.
func (r HkiRepository) SertifikatPaths(ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.DB.Query(
		`SELECT sertifikat_pdf FROM hki WHERE sertifikat_pdf IS NOT NULL AND sertifikat_pdf <> '' AND id_hki IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// BulkDelete menghapus sekumpulan record dan mengembalikan jumlah terhapus.
func (r HkiRepository) BulkDelete(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.DB.Exec(`DELETE FROM hki WHERE id_hki IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.HkiEntry, error) {
	var (
		e        domain.HkiEntry
		pemohon  domain.Pemohon
		jenis    domain.JenisHki
		status   domain.StatusHki
		pengusul domain.Pengusul
		kelas    domain.KelasHki
	)
	if err := row.Scan(
		&e.ID,
		&e.NamaHki,
		&e.JenisProduk,
		&e.TahunFasilitasi,
		&e.SertifikatPdf,
		&e.Keterangan,
		&e.CreatedAt,
		&e.UpdatedAt,
		&pemohon.ID,
		&pemohon.Nama,
		&pemohon.Alamat,
		&jenis.ID,
		&jenis.Nama,
		&status.ID,
		&status.Nama,
		&pengusul.ID,
		&pengusul.NamaOpd,
		&kelas.ID,
		&kelas.Nama,
		&kelas.Tipe,
	); err != nil {
		return e, err
	}
	if pemohon.ID != 0 {
		e.Pemohon = &pemohon
	}
	if jenis.ID != 0 {
		e.Jenis = &jenis
	}
	if status.ID != 0 {
		e.Status = &status
	}
	if pengusul.ID != 0 {
		e.Pengusul = &pengusul
	}
	if kelas.ID != 0 {
		e.Kelas = &kelas
	}
	return e, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func nullIfZero(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
