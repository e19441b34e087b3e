package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"hki-backend/internal/domain"
	"hki-backend/internal/repositories"
)

// MasterHandler melayani CRUD tabel lookup. Tiap entitas punya endpoint dan
// skema sendiri; tidak ada endpoint generik berparameter nama tabel.
type MasterHandler struct {
	DB *sql.DB
}

func (h MasterHandler) repo() repositories.MasterRepository {
	return repositories.MasterRepository{DB: h.DB}
}

// GET /api/form-options
func (h MasterHandler) FormOptions(c *gin.Context) {
	opts, err := h.repo().FormOptions()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// GET /api/master/jenis-hki
func (h MasterHandler) ListJenis(c *gin.Context) {
	out, err := h.repo().ListJenis()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type createJenisRequest struct {
	Nama string `json:"nama_jenis_hki"`
}

// POST /api/master/jenis-hki
func (h MasterHandler) CreateJenis(c *gin.Context) {
	var req createJenisRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	created, err := h.repo().CreateJenis(req.Nama)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Data berhasil dibuat", "data": created})
}

// GET /api/master/pengusul
func (h MasterHandler) ListPengusul(c *gin.Context) {
	out, err := h.repo().ListPengusul()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type createPengusulRequest struct {
	NamaOpd string `json:"nama_opd"`
}

// POST /api/master/pengusul
func (h MasterHandler) CreatePengusul(c *gin.Context) {
	var req createPengusulRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	created, err := h.repo().CreatePengusul(req.NamaOpd)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Data berhasil dibuat", "data": created})
}

// GET /api/master/kelas-hki
func (h MasterHandler) ListKelas(c *gin.Context) {
	out, err := h.repo().ListKelas()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type createKelasRequest struct {
	ID   int64  `json:"id_kelas"`
	Nama string `json:"nama_kelas"`
	Tipe string `json:"tipe"`
}

// POST /api/master/kelas-hki
func (h MasterHandler) CreateKelas(c *gin.Context) {
	var req createKelasRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	created, err := h.repo().CreateKelas(domain.KelasHki{ID: req.ID, Nama: req.Nama, Tipe: req.Tipe})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Data berhasil dibuat", "data": created})
}
