package handlers

import (
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hki-backend/internal/blob"
	"hki-backend/internal/domain"
	"hki-backend/internal/http/middleware"
	"hki-backend/internal/repositories"
	"hki-backend/internal/services"
)

// HkiHandler menerima dependensi eksplisit saat router dibangun;
// tiap request membentuk service dengan handle yang sama plus request_id.
type HkiHandler struct {
	DB   *sql.DB
	Blob blob.Store
}

func (h HkiHandler) svc(c *gin.Context) services.HkiService {
	return services.HkiService{
		HkiRepo:     repositories.HkiRepository{DB: h.DB},
		PemohonRepo: repositories.PemohonRepository{DB: h.DB},
		Blob:        h.Blob,
		RequestID:   middleware.GetRequestID(c),
	}
}

// parseFilter membaca query param list/export jadi ListFilter.
// Angka rusak langsung 400, tanpa menyentuh database.
func parseFilter(c *gin.Context) (repositories.ListFilter, error) {
	var f repositories.ListFilter
	f.Search = strings.TrimSpace(c.Query("search"))
	f.SortBy = strings.TrimSpace(c.Query("sortBy"))
	f.SortOrder = strings.TrimSpace(c.Query("sortOrder"))

	for name, dst := range map[string]*int64{
		"jenisId":    &f.JenisID,
		"statusId":   &f.StatusID,
		"year":       &f.Year,
		"pengusulId": &f.PengusulID,
	} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return f, domain.ValidationError{Field: name, Msg: "harus angka positif"}
		}
		*dst = v
	}

	for name, dst := range map[string]*int{"page": &f.Page, "pageSize": &f.PageSize} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return f, domain.ValidationError{Field: name, Msg: "harus angka positif"}
		}
		*dst = v
	}
	return f, nil
}

// GET /api/hki
func (h HkiHandler) List(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	res, err := h.svc(c).List(f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/hki/:id
func (h HkiHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	entry, err := h.svc(c).Get(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry})
}

// POST /api/hki (multipart form)
func (h HkiHandler) Create(c *gin.Context) {
	in, file, closeFile, err := bindHkiForm(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer closeFile()

	entry, err := h.svc(c).Create(c.Request.Context(), in, file)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": entry})
}

// PUT /api/hki/:id (multipart form)
func (h HkiHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	in, file, closeFile, err := bindHkiForm(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer closeFile()

	entry, err := h.svc(c).Update(c.Request.Context(), id, in, file)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry})
}

type updateStatusRequest struct {
	StatusID int64 `json:"statusId"`
}

// PATCH /api/hki/:id/status
func (h HkiHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var req updateStatusRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	statusName, err := h.svc(c).UpdateStatus(id, req.StatusID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Status berhasil diperbarui ke %q", statusName),
		"data":    gin.H{"id_hki": id, "nama_status": statusName},
	})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// POST /api/hki/bulk-delete
func (h HkiHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	deleted, err := h.svc(c).BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d data HKI berhasil dihapus", deleted),
	})
}

// GET /api/hki/export?format=csv|pdf
func (h HkiHandler) Export(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	svc := services.ExportService{
		HkiRepo:   repositories.HkiRepository{DB: h.DB},
		RequestID: middleware.GetRequestID(c),
	}
	data, filename, contentType, err := svc.Export(f, c.Query("format"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: "id", Msg: "harus angka positif"}
	}
	return id, nil
}

// bindHkiForm membaca field form create/update plus file opsional.
// closeFile selalu aman dipanggil, juga saat tidak ada file.
func bindHkiForm(c *gin.Context) (services.HkiInput, *services.Attachment, func(), error) {
	noop := func() {}

	in := services.HkiInput{
		NamaHki:     c.PostForm("nama_hki"),
		NamaPemohon: c.PostForm("nama_pemohon"),
		Alamat:      c.PostForm("alamat"),
		JenisProduk: c.PostForm("jenis_produk"),
		Keterangan:  c.PostForm("keterangan"),
	}

	for name, dst := range map[string]*int64{
		"tahun_fasilitasi": &in.TahunFasilitasi,
		"id_jenis_hki":     &in.IDJenisHki,
		"id_status":        &in.IDStatus,
		"id_pengusul":      &in.IDPengusul,
		"id_kelas":         &in.IDKelas,
	} {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, nil, noop, domain.ValidationError{Field: name, Msg: "harus angka"}
		}
		*dst = v
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil || fileHeader.Size == 0 {
		return in, nil, noop, nil
	}

	f, err := fileHeader.Open()
	if err != nil {
		return in, nil, noop, domain.ValidationError{Field: "file", Msg: "file tidak bisa dibaca", Err: err}
	}

	att := &services.Attachment{
		Filename:    fileHeader.Filename,
		ContentType: fileContentType(fileHeader),
		Data:        f,
	}
	return in, att, func() { _ = f.Close() }, nil
}

func fileContentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
