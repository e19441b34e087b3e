package repositories

import (
	"database/sql"
	"log"
	"strings"

	"hki-backend/internal/db"
	"hki-backend/internal/domain"
	"hki-backend/internal/utils"
)

type PemohonRepository struct {
	DB *sql.DB
}

// UpsertByName mencari pemohon berdasarkan nama yang sudah dinormalisasi
// spasinya; kalau ada pakai id lamanya, kalau belum ada insert baru. Dua
// request create dengan nama sama berpacu di sini; unique constraint
// nama_pemohon di DB jadi pengamannya.
func (r PemohonRepository) UpsertByName(nama, alamat string) (int64, error) {
	nama = utils.NormalizeSpace(nama)
	if nama == "" {
		return 0, domain.ValidationError{Field: "nama_pemohon", Msg: "tidak boleh kosong"}
	}

	var id int64
	err := r.DB.QueryRow(`SELECT id_pemohon FROM pemohon WHERE nama_pemohon = ? LIMIT 1`, nama).Scan(&id)
	if err == nil {
		// Alamat hanya penyegaran data; gagal update tidak membatalkan upsert.
		if alamat := strings.TrimSpace(alamat); alamat != "" {
			if _, upErr := r.DB.Exec(`UPDATE pemohon SET alamat = ? WHERE id_pemohon = ?`, alamat, id); upErr != nil {
				log.Printf("[PEMOHON] gagal memperbarui alamat pemohon %d: %v", id, upErr)
			}
		}
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := r.DB.Exec(
		`INSERT INTO pemohon (nama_pemohon, alamat) VALUES (?, ?)`,
		nama, db.NullIfEmpty(strings.TrimSpace(alamat)),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetByID mengambil satu pemohon.
func (r PemohonRepository) GetByID(id int64) (domain.Pemohon, error) {
	var p domain.Pemohon
	err := r.DB.QueryRow(
		`SELECT id_pemohon, nama_pemohon, COALESCE(alamat, '') FROM pemohon WHERE id_pemohon = ?`, id,
	).Scan(&p.ID, &p.Nama, &p.Alamat)
	if err == sql.ErrNoRows {
		return p, domain.NotFoundError{Resource: "pemohon"}
	}
	return p, err
}
