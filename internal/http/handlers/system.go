package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	intdb "hki-backend/internal/db"
)

// SystemHandler melayani endpoint kesehatan service.
type SystemHandler struct {
	DB *sql.DB
}

func (h SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "backend hki berjalan"})
}

func (h SystemHandler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database belum terhubung"})
		return
	}
	if !intdb.HasTable(h.DB, "hki") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tabel hki belum tersedia, jalankan migrasi terlebih dahulu"})
		return
	}
	var count int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM hki").Scan(&count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gagal query ke database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "koneksi database OK", "hki_in_db": count})
}
