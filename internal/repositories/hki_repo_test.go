package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"hki-backend/internal/domain"
)

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id_hki", "nama_hki", "jenis_produk", "tahun_fasilitasi", "sertifikat_pdf",
		"keterangan", "created_at", "updated_at",
		"id_pemohon", "nama_pemohon", "alamat",
		"id_jenis_hki", "nama_jenis_hki",
		"id_status", "nama_status",
		"id_pengusul", "nama_opd",
		"id_kelas", "nama_kelas", "tipe",
	})
}

func addEntryRow(rows *sqlmock.Rows, id int64, nama string) *sqlmock.Rows {
	return rows.AddRow(
		id, nama, "Kain", 2024, "", "", "2024-05-01 10:00:00", "",
		1, "Dinas A", "Jl. Merdeka 1",
		2, "Merek",
		3, "Dalam Proses",
		4, "Dinas Koperasi",
		0, "", "",
	)
}

func TestSearchWithTextReturnsPageAndTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	pattern := "%batik%"

	mock.ExpectQuery("SELECT id_pemohon FROM pemohon WHERE LOWER\\(nama_pemohon\\) LIKE").
		WithArgs(pattern).
		WillReturnRows(sqlmock.NewRows([]string{"id_pemohon"}).AddRow(1))

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki h WHERE \\(LOWER\\(h.nama_hki\\) LIKE \\? OR LOWER\\(h.jenis_produk\\) LIKE \\? OR h.id_pemohon IN \\(\\?\\)\\)").
		WithArgs(pattern, pattern, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rows := entryRows()
	addEntryRow(rows, 11, "Batik Tulis Lasem")
	addEntryRow(rows, 10, "Batik Cap Pekalongan")
	mock.ExpectQuery("ORDER BY h.created_at DESC, h.id_hki DESC LIMIT \\? OFFSET \\?").
		WithArgs(pattern, pattern, int64(1), 2, 0).
		WillReturnRows(rows)

	f := ListFilter{Search: "Batik", Page: 1, PageSize: 2}
	if err := f.Normalize(); err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	res, err := HkiRepository{DB: db}.Search(f)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if res.TotalCount != 3 {
		t.Fatalf("totalCount = %d, want 3", res.TotalCount)
	}
	if len(res.Data) != 2 {
		t.Fatalf("data length = %d, want 2", len(res.Data))
	}
	if res.Data[0].NamaHki != "Batik Tulis Lasem" {
		t.Fatalf("unexpected first row: %s", res.Data[0].NamaHki)
	}
	if res.Data[0].Pemohon == nil || res.Data[0].Pemohon.Nama != "Dinas A" {
		t.Fatalf("pemohon join not populated: %+v", res.Data[0].Pemohon)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchOmitsPemohonBranchWhenNoIDsMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	pattern := "%batik%"

	mock.ExpectQuery("SELECT id_pemohon FROM pemohon").
		WithArgs(pattern).
		WillReturnRows(sqlmock.NewRows([]string{"id_pemohon"}))

	// Tanpa cabang IN: hanya dua predikat LIKE di dalam OR.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki h WHERE \\(LOWER\\(h.nama_hki\\) LIKE \\? OR LOWER\\(h.jenis_produk\\) LIKE \\?\\)").
		WithArgs(pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery("ORDER BY h.created_at DESC").
		WithArgs(pattern, pattern, 50, 0).
		WillReturnRows(entryRows())

	f := ListFilter{Search: "Batik"}
	if err := f.Normalize(); err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	res, err := HkiRepository{DB: db}.Search(f)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if res.TotalCount != 0 || len(res.Data) != 0 {
		t.Fatalf("expected empty result, got total=%d len=%d", res.TotalCount, len(res.Data))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchPageBeyondLastKeepsTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki h").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	mock.ExpectQuery("LIMIT \\? OFFSET \\?").
		WithArgs(int64(3), 50, 100).
		WillReturnRows(entryRows())

	f := ListFilter{StatusID: 3, Page: 3}
	if err := f.Normalize(); err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	res, err := HkiRepository{DB: db}.Search(f)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if res.TotalCount != 7 {
		t.Fatalf("totalCount = %d, want 7", res.TotalCount)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected empty page, got %d rows", len(res.Data))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSearchSortByJoinedPemohonColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki h").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := entryRows()
	addEntryRow(rows, 5, "Kopi Gayo")
	mock.ExpectQuery("ORDER BY p.nama_pemohon ASC, h.id_hki DESC").
		WithArgs(50, 0).
		WillReturnRows(rows)

	f := ListFilter{SortBy: "nama_pemohon", SortOrder: "asc"}
	if err := f.Normalize(); err != nil {
		t.Fatalf("normalize error: %v", err)
	}

	if _, err := (HkiRepository{DB: db}).Search(f); err != nil {
		t.Fatalf("search error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNormalizeRejectsBadFilters(t *testing.T) {
	cases := []struct {
		name string
		f    ListFilter
	}{
		{"negative page", ListFilter{Page: -1}},
		{"pageSize too big", ListFilter{PageSize: 101}},
		{"bad sort order", ListFilter{SortOrder: "upwards"}},
		{"unknown sort column", ListFilter{SortBy: "sertifikat_pdf; DROP TABLE hki"}},
		{"negative filter id", ListFilter{JenisID: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Normalize()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !domain.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	var f ListFilter
	if err := f.Normalize(); err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if f.Page != 1 || f.PageSize != 50 {
		t.Fatalf("defaults wrong: page=%d pageSize=%d", f.Page, f.PageSize)
	}
	if f.SortBy != "created_at" || f.SortOrder != "desc" {
		t.Fatalf("sort defaults wrong: %s %s", f.SortBy, f.SortOrder)
	}
}

func TestUpdateStatusMissingRowReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT nama_status FROM status_hki").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"nama_status"}).AddRow("Diterima"))
	mock.ExpectExec("UPDATE hki SET id_status").
		WithArgs(int64(2), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki WHERE id_hki").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err = HkiRepository{DB: db}.UpdateStatus(99, 2)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
