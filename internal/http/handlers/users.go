package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// UsersHandler melayani manajemen pengguna dashboard (khusus admin).
type UsersHandler struct {
	DB *sql.DB
}

// GET /api/users
func (h UsersHandler) List(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, full_name, email, role, COALESCE(created_at, ''), COALESCE(last_sign_in_at, '')
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer rows.Close()

	type userRow struct {
		ID           int64  `json:"id"`
		FullName     string `json:"full_name"`
		Email        string `json:"email"`
		Role         string `json:"role"`
		CreatedAt    string `json:"created_at"`
		LastSignInAt string `json:"last_sign_in_at,omitempty"`
	}

	users := []userRow{}
	for rows.Next() {
		var u userRow
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &u.LastSignInAt); err != nil {
			RespondDomainError(c, err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// POST /api/users
func (h UsersHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if !strings.Contains(req.Email, "@") {
		RespondError(c, http.StatusBadRequest, "format email tidak valid", nil)
		return
	}
	if len(req.Password) < 6 {
		RespondError(c, http.StatusBadRequest, "password minimal 6 karakter", nil)
		return
	}
	if len(req.FullName) < 3 {
		RespondError(c, http.StatusBadRequest, "nama lengkap minimal 3 karakter", nil)
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}
	if req.Role != "admin" && req.Role != "user" {
		RespondError(c, http.StatusBadRequest, "role harus admin atau user", nil)
		return
	}

	var exists int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, req.Email).Scan(&exists); err != nil {
		RespondDomainError(c, err)
		return
	}
	if exists > 0 {
		RespondError(c, http.StatusConflict, "email ini sudah terdaftar", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "gagal meng-hash password", nil)
		return
	}

	res, err := h.DB.Exec(`
		INSERT INTO users (full_name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, NOW())
	`, req.FullName, req.Email, string(hash), req.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	id, _ := res.LastInsertId()
	c.JSON(http.StatusCreated, gin.H{
		"message": "pengguna baru berhasil ditambahkan",
		"user": gin.H{
			"id":        id,
			"full_name": req.FullName,
			"email":     req.Email,
			"role":      req.Role,
		},
	})
}
