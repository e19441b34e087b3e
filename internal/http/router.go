package api

import (
	"database/sql"
	"log"
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hki-backend/internal/blob"
	intconfig "hki-backend/internal/config"
	h "hki-backend/internal/http/handlers"
	"hki-backend/internal/http/middleware"
)

// NewRouter membangun gin engine dengan seluruh dependensi eksplisit;
// handler tidak pernah membaca state global.
func NewRouter(env intconfig.Env, db *sql.DB, store blob.Store) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	secret := []byte(env.JWTSecret)
	hkiHandler := h.HkiHandler{DB: db, Blob: store}
	masterHandler := h.MasterHandler{DB: db}
	authHandler := h.AuthHandler{DB: db, Secret: secret}
	usersHandler := h.UsersHandler{DB: db}
	systemHandler := h.SystemHandler{DB: db}

	api := r.Group("/api")
	{
		api.GET("/health", systemHandler.Health)
		api.GET("/db-check", systemHandler.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)

		adminOnly := api.Group("")
		adminOnly.Use(middleware.Auth(secret), middleware.RequireRoles("admin"))
		{
			hki := adminOnly.Group("/hki")
			hki.GET("", hkiHandler.List)
			hki.POST("", hkiHandler.Create)
			hki.GET("/export", hkiHandler.Export)
			hki.POST("/bulk-delete", hkiHandler.BulkDelete)
			hki.GET("/:id", hkiHandler.Get)
			hki.PUT("/:id", hkiHandler.Update)
			hki.PATCH("/:id/status", hkiHandler.UpdateStatus)

			adminOnly.GET("/form-options", masterHandler.FormOptions)

			master := adminOnly.Group("/master")
			master.GET("/jenis-hki", masterHandler.ListJenis)
			master.POST("/jenis-hki", masterHandler.CreateJenis)
			master.GET("/pengusul", masterHandler.ListPengusul)
			master.POST("/pengusul", masterHandler.CreatePengusul)
			master.GET("/kelas-hki", masterHandler.ListKelas)
			master.POST("/kelas-hki", masterHandler.CreateKelas)

			users := adminOnly.Group("/users")
			users.GET("", usersHandler.List)
			users.POST("", usersHandler.Create)
		}
	}

	return r
}
