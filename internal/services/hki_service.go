package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hki-backend/internal/blob"
	"hki-backend/internal/domain"
	"hki-backend/internal/repositories"
	"hki-backend/internal/utils"
)

// HkiService mengorkestrasi jalur tulis multi-langkah data pengajuan HKI.
// Tanpa transaksi lintas tabel+storage, kegagalan di tengah jalan
// dikompensasi dengan delete balikan, bukan dibiarkan menggantung.
type HkiService struct {
	HkiRepo     repositories.HkiRepository
	PemohonRepo repositories.PemohonRepository
	Blob        blob.Store
	RequestID   string
}

// Attachment adalah file sertifikat yang ikut pada form create/update.
type Attachment struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// HkiInput adalah payload create/update yang sudah di-bind dari form.
type HkiInput struct {
	NamaHki         string
	NamaPemohon     string
	Alamat          string
	JenisProduk     string
	TahunFasilitasi int64
	Keterangan      string
	IDJenisHki      int64
	IDStatus        int64
	IDPengusul      int64
	IDKelas         int64
}

func (in *HkiInput) validate() error {
	in.NamaHki = strings.TrimSpace(in.NamaHki)
	in.NamaPemohon = strings.TrimSpace(in.NamaPemohon)
	if len(in.NamaHki) < 3 {
		return domain.ValidationError{Field: "nama_hki", Msg: "minimal 3 karakter"}
	}
	if len(in.NamaPemohon) < 3 {
		return domain.ValidationError{Field: "nama_pemohon", Msg: "minimal 3 karakter"}
	}
	if in.TahunFasilitasi <= 0 {
		return domain.ValidationError{Field: "tahun_fasilitasi", Msg: "tahun harus angka positif"}
	}
	if in.IDJenisHki <= 0 {
		return domain.ValidationError{Field: "id_jenis_hki", Msg: "jenis HKI wajib diisi"}
	}
	if in.IDStatus <= 0 {
		return domain.ValidationError{Field: "id_status", Msg: "status wajib diisi"}
	}
	if in.IDPengusul <= 0 {
		return domain.ValidationError{Field: "id_pengusul", Msg: "pengusul wajib diisi"}
	}
	if in.IDKelas < 0 {
		return domain.ValidationError{Field: "id_kelas", Msg: "kelas tidak valid"}
	}
	return nil
}

func (in HkiInput) record(pemohonID int64) repositories.HkiCreate {
	return repositories.HkiCreate{
		NamaHki:         in.NamaHki,
		JenisProduk:     strings.TrimSpace(in.JenisProduk),
		TahunFasilitasi: in.TahunFasilitasi,
		Keterangan:      strings.TrimSpace(in.Keterangan),
		IDPemohon:       pemohonID,
		IDJenisHki:      in.IDJenisHki,
		IDStatus:        in.IDStatus,
		IDPengusul:      in.IDPengusul,
		IDKelas:         in.IDKelas,
	}
}

// List memvalidasi filter lalu menjalankan query; filter rusak ditolak
// sebelum menyentuh database.
func (s HkiService) List(f repositories.ListFilter) (repositories.ListResult, error) {
	if err := f.Normalize(); err != nil {
		return repositories.ListResult{}, err
	}
	return s.HkiRepo.Search(f)
}

// Get mengambil satu record beserta join lookup-nya.
func (s HkiService) Get(id int64) (domain.HkiEntry, error) {
	if id <= 0 {
		return domain.HkiEntry{}, domain.ValidationError{Field: "id", Msg: "harus angka positif"}
	}
	return s.HkiRepo.GetEntryByID(id)
}

// Create menjalankan jalur tulis berurutan:
// upsert pemohon -> insert hki -> upload sertifikat -> tautkan path.
// Record hanya bertahan dalam keadaan lengkap; partial write dihapus balik.
func (s HkiService) Create(ctx context.Context, in HkiInput, file *Attachment) (domain.HkiEntry, error) {
	if err := in.validate(); err != nil {
		return domain.HkiEntry{}, err
	}

	pemohonID, err := s.PemohonRepo.UpsertByName(in.NamaPemohon, in.Alamat)
	if err != nil {
		return domain.HkiEntry{}, fmt.Errorf("gagal memproses data pemohon: %w", err)
	}

	hkiID, err := s.HkiRepo.Insert(in.record(pemohonID))
	if err != nil {
		return domain.HkiEntry{}, fmt.Errorf("gagal menyimpan data HKI: %w", err)
	}
	utils.LogEvent(s.RequestID, "hki", "create", "id="+strconv.FormatInt(hkiID, 10))

	if file != nil {
		if err := s.attachCertificate(ctx, hkiID, file); err != nil {
			return domain.HkiEntry{}, err
		}
	}

	entry, err := s.HkiRepo.GetEntryByID(hkiID)
	if err != nil {
		return domain.HkiEntry{}, fmt.Errorf("gagal mengambil data yang baru dibuat: %w", err)
	}
	return entry, nil
}

// attachCertificate mengunggah file lalu menautkan path-nya. Gagal upload
// menghapus record; gagal tautkan menghapus objek DAN record. Kegagalan
// kompensasi dicatat tapi tidak menutupi error pemicunya.
func (s HkiService) attachCertificate(ctx context.Context, hkiID int64, file *Attachment) error {
	key := certificateKey(file.Filename)

	if err := s.Blob.Put(ctx, key, file.ContentType, file.Data); err != nil {
		if delErr := s.HkiRepo.Delete(hkiID); delErr != nil {
			log.Printf("[HKI] kompensasi gagal: hapus record %d setelah upload gagal: %v", hkiID, delErr)
		}
		return domain.InternalError{Msg: "upload file sertifikat gagal", Err: err}
	}

	if err := s.HkiRepo.SetSertifikat(hkiID, key); err != nil {
		if delErr := s.Blob.Delete(ctx, key); delErr != nil {
			log.Printf("[HKI] kompensasi gagal: hapus objek %s setelah penautan gagal: %v", key, delErr)
		}
		if delErr := s.HkiRepo.Delete(hkiID); delErr != nil {
			log.Printf("[HKI] kompensasi gagal: hapus record %d setelah penautan gagal: %v", hkiID, delErr)
		}
		return domain.InternalError{Msg: "gagal menautkan file sertifikat", Err: err}
	}
	return nil
}

// Update menimpa record lama. Pemohon ikut di-upsert agar ganti nama pemohon
// pada form tidak menimpa pemohon lain.
func (s HkiService) Update(ctx context.Context, id int64, in HkiInput, file *Attachment) (domain.HkiEntry, error) {
	if id <= 0 {
		return domain.HkiEntry{}, domain.ValidationError{Field: "id", Msg: "harus angka positif"}
	}
	if err := in.validate(); err != nil {
		return domain.HkiEntry{}, err
	}

	existing, err := s.HkiRepo.GetEntryByID(id)
	if err != nil {
		return domain.HkiEntry{}, err
	}

	pemohonID, err := s.PemohonRepo.UpsertByName(in.NamaPemohon, in.Alamat)
	if err != nil {
		return domain.HkiEntry{}, fmt.Errorf("gagal memproses data pemohon: %w", err)
	}

	if err := s.HkiRepo.Update(id, in.record(pemohonID)); err != nil {
		return domain.HkiEntry{}, err
	}
	utils.LogEvent(s.RequestID, "hki", "update", "id="+strconv.FormatInt(id, 10))

	if file != nil {
		key := certificateKey(file.Filename)
		if err := s.Blob.Put(ctx, key, file.ContentType, file.Data); err != nil {
			return domain.HkiEntry{}, domain.InternalError{Msg: "upload file sertifikat gagal", Err: err}
		}
		if err := s.HkiRepo.SetSertifikat(id, key); err != nil {
			if delErr := s.Blob.Delete(ctx, key); delErr != nil {
				log.Printf("[HKI] kompensasi gagal: hapus objek %s: %v", key, delErr)
			}
			return domain.HkiEntry{}, domain.InternalError{Msg: "gagal menautkan file sertifikat", Err: err}
		}
		// sertifikat lama tidak dipakai lagi
		if old := existing.SertifikatPdf; old != "" && old != key {
			if delErr := s.Blob.Delete(ctx, old); delErr != nil {
				log.Printf("[HKI] gagal menghapus sertifikat lama %s: %v", old, delErr)
			}
		}
	}

	return s.HkiRepo.GetEntryByID(id)
}

// UpdateStatus mengganti status satu record; 404 bila id tidak ada.
func (s HkiService) UpdateStatus(id, statusID int64) (string, error) {
	if id <= 0 {
		return "", domain.ValidationError{Field: "id", Msg: "harus angka positif"}
	}
	if statusID <= 0 {
		return "", domain.ValidationError{Field: "statusId", Msg: "harus angka positif"}
	}
	name, err := s.HkiRepo.UpdateStatus(id, statusID)
	if err != nil {
		return "", err
	}
	utils.LogEvent(s.RequestID, "hki", "update_status", fmt.Sprintf("id=%d status=%s", id, name))
	return name, nil
}

// BulkDelete menghapus sekumpulan record lalu membersihkan sertifikatnya
// dari object storage secara best-effort.
func (s HkiService) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, domain.ValidationError{Field: "ids", Msg: "tidak boleh kosong"}
	}
	for _, id := range ids {
		if id <= 0 {
			return 0, domain.ValidationError{Field: "ids", Msg: "berisi id tidak valid"}
		}
	}

	paths, err := s.HkiRepo.SertifikatPaths(ids)
	if err != nil {
		return 0, fmt.Errorf("gagal mengambil daftar sertifikat: %w", err)
	}

	deleted, err := s.HkiRepo.BulkDelete(ids)
	if err != nil {
		return 0, fmt.Errorf("gagal menghapus data HKI: %w", err)
	}

	for _, p := range paths {
		if delErr := s.Blob.Delete(ctx, p); delErr != nil {
			log.Printf("[HKI] gagal menghapus sertifikat %s saat bulk delete: %v", p, delErr)
		}
	}

	utils.LogEvent(s.RequestID, "hki", "bulk_delete", fmt.Sprintf("deleted=%d", deleted))
	return deleted, nil
}

// certificateKey membuat object key unik agar nama file tidak bentrok.
func certificateKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return "public/" + uuid.NewString() + ext
}
