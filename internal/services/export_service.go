package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"hki-backend/internal/domain"
	"hki-backend/internal/repositories"
	"hki-backend/internal/utils"
)

// ExportService menghasilkan berkas unduhan (CSV/PDF) dari data HKI
// yang sudah terfilter, mengikuti filter aktif di halaman daftar.
type ExportService struct {
	HkiRepo   repositories.HkiRepository
	RequestID string
}

// Export mengambil seluruh baris yang cocok dengan filter (pagination
// di-loop per halaman penuh) lalu merendernya per format.
func (s ExportService) Export(f repositories.ListFilter, format string) ([]byte, string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, "", "", domain.ValidationError{Field: "format", Msg: "harus csv atau pdf"}
	}

	f.Page = 1
	f.PageSize = 100
	if err := f.Normalize(); err != nil {
		return nil, "", "", err
	}

	entries := []domain.HkiEntry{}
	for {
		res, err := s.HkiRepo.Search(f)
		if err != nil {
			return nil, "", "", err
		}
		entries = append(entries, res.Data...)
		if int64(len(entries)) >= res.TotalCount || len(res.Data) == 0 {
			break
		}
		f.Page++
	}

	utils.LogEvent(s.RequestID, "export", "generate", fmt.Sprintf("format=%s rows=%d", format, len(entries)))

	stamp := time.Now().Format("2006-01-02")
	switch format {
	case "csv":
		data, err := buildCSV(entries)
		return data, "hki-export-" + stamp + ".csv", "text/csv", err
	default:
		data, err := buildExportPDF(entries)
		return data, "hki-export-" + stamp + ".pdf", "application/pdf", err
	}
}

var exportHeader = []string{
	"ID", "Nama HKI", "Pemohon", "Alamat", "Jenis", "Jenis Produk",
	"Status", "Pengusul (OPD)", "Kelas", "Tahun Fasilitasi", "Keterangan", "Dibuat",
}

func exportRow(e domain.HkiEntry) []string {
	pemohon, alamat := "", ""
	if e.Pemohon != nil {
		pemohon, alamat = e.Pemohon.Nama, e.Pemohon.Alamat
	}
	jenis := ""
	if e.Jenis != nil {
		jenis = e.Jenis.Nama
	}
	status := ""
	if e.Status != nil {
		status = e.Status.Nama
	}
	pengusul := ""
	if e.Pengusul != nil {
		pengusul = e.Pengusul.NamaOpd
	}
	kelas := ""
	if e.Kelas != nil {
		kelas = fmt.Sprintf("%d - %s", e.Kelas.ID, e.Kelas.Nama)
	}
	tahun := ""
	if e.TahunFasilitasi > 0 {
		tahun = strconv.FormatInt(e.TahunFasilitasi, 10)
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.NamaHki, pemohon, alamat, jenis, e.JenisProduk,
		status, pengusul, kelas, tahun, e.Keterangan, e.CreatedAt,
	}
}

func buildCSV(entries []domain.HkiEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := w.Write(exportRow(e)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func buildExportPDF(entries []domain.HkiEntry) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Data Pengajuan Fasilitasi HKI", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Data Pengajuan Fasilitasi HKI")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Diekspor %s, total %d data", time.Now().Format("02-01-2006 15:04"), len(entries)))
	pdf.Ln(10)

	cols := []struct {
		label string
		width float64
	}{
		{"Nama HKI", 60},
		{"Pemohon", 50},
		{"Jenis", 30},
		{"Status", 28},
		{"Pengusul", 55},
		{"Tahun", 16},
	}

	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.label, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		row := exportRow(e)
		// urutan: nama, pemohon, jenis, status, pengusul, tahun
		cells := []string{row[1], row[2], row[4], row[6], row[7], row[9]}
		for i, c := range cols {
			pdf.CellFormat(c.width, 7, clipText(cells[i], int(c.width/2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clipText(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
