package services

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"hki-backend/internal/domain"
	"hki-backend/internal/repositories"
)

func expectExportPage(mock sqlmock.Sqlmock, total int64, names ...string) {
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM hki h").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))

	rows := sqlmock.NewRows([]string{
		"id_hki", "nama_hki", "jenis_produk", "tahun_fasilitasi", "sertifikat_pdf",
		"keterangan", "created_at", "updated_at",
		"id_pemohon", "nama_pemohon", "alamat",
		"id_jenis_hki", "nama_jenis_hki",
		"id_status", "nama_status",
		"id_pengusul", "nama_opd",
		"id_kelas", "nama_kelas", "tipe",
	})
	for i, name := range names {
		rows.AddRow(
			int64(i+1), name, "Kain", 2024, "", "", "2024-05-01 10:00:00", "",
			7, "Dinas A", "",
			2, "Merek",
			3, "Diterima",
			4, "Dinas Koperasi",
			0, "", "",
		)
	}
	mock.ExpectQuery("LIMIT \\? OFFSET \\?").WillReturnRows(rows)
}

func TestExportCSVContainsFilteredRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectExportPage(mock, 2, "Batik Tulis Lasem", "Kopi Gayo")

	svc := ExportService{HkiRepo: repositories.HkiRepository{DB: db}}
	data, filename, contentType, err := svc.Export(repositories.ListFilter{}, "csv")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if contentType != "text/csv" || !strings.HasSuffix(filename, ".csv") {
		t.Fatalf("unexpected filename/content type: %s %s", filename, contentType)
	}

	out := string(data)
	if !strings.Contains(out, "Nama HKI") {
		t.Fatalf("csv header missing: %q", out)
	}
	if !strings.Contains(out, "Batik Tulis Lasem") || !strings.Contains(out, "Kopi Gayo") {
		t.Fatalf("csv rows missing: %q", out)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExportPDFProducesDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectExportPage(mock, 1, "Batik Tulis Lasem")

	svc := ExportService{HkiRepo: repositories.HkiRepository{DB: db}}
	data, filename, contentType, err := svc.Export(repositories.ListFilter{}, "pdf")
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("pdf output empty")
	}
	if contentType != "application/pdf" || !strings.HasSuffix(filename, ".pdf") {
		t.Fatalf("unexpected filename/content type: %s %s", filename, contentType)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := ExportService{}
	if _, _, _, err := svc.Export(repositories.ListFilter{}, "xlsx"); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
