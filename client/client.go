// Package client adalah klien HTTP untuk backend HKI, termasuk QueryCache
// yang membuat mutasi status/hapus terasa instan di dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Pemohon mirrors the server-side applicant payload.
type Pemohon struct {
	ID     int64  `json:"id_pemohon"`
	Nama   string `json:"nama_pemohon"`
	Alamat string `json:"alamat,omitempty"`
}

type StatusOption struct {
	ID   int64  `json:"id_status"`
	Nama string `json:"nama_status"`
}

type JenisOption struct {
	ID   int64  `json:"id_jenis_hki"`
	Nama string `json:"nama_jenis_hki"`
}

type PengusulOption struct {
	ID      int64  `json:"id_pengusul"`
	NamaOpd string `json:"nama_opd"`
}

type KelasOption struct {
	ID   int64  `json:"id_kelas"`
	Nama string `json:"nama_kelas"`
	Tipe string `json:"tipe"`
}

// Record adalah satu baris data HKI beserta lookup join-nya.
type Record struct {
	ID              int64           `json:"id_hki"`
	NamaHki         string          `json:"nama_hki"`
	JenisProduk     string          `json:"jenis_produk,omitempty"`
	TahunFasilitasi int64           `json:"tahun_fasilitasi,omitempty"`
	SertifikatPdf   string          `json:"sertifikat_pdf,omitempty"`
	Keterangan      string          `json:"keterangan,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
	Pemohon         *Pemohon        `json:"pemohon,omitempty"`
	Jenis           *JenisOption    `json:"jenis,omitempty"`
	Status          *StatusOption   `json:"status_hki,omitempty"`
	Pengusul        *PengusulOption `json:"pengusul,omitempty"`
	Kelas           *KelasOption    `json:"kelas,omitempty"`
}

// ListResult adalah satu halaman data plus total sebelum pagination.
type ListResult struct {
	Data       []Record `json:"data"`
	TotalCount int64    `json:"totalCount"`
}

// FormOptions berisi daftar lookup untuk filter dan form.
type FormOptions struct {
	JenisOptions    []JenisOption    `json:"jenis_options"`
	StatusOptions   []StatusOption   `json:"status_options"`
	PengusulOptions []PengusulOption `json:"pengusul_options"`
	KelasOptions    []KelasOption    `json:"kelas_options"`
	TahunOptions    []int64          `json:"tahun_options"`
}

// Filter adalah parameter list query; nilai nol berarti filter tidak aktif.
type Filter struct {
	Search     string
	JenisID    int64
	StatusID   int64
	Year       int64
	PengusulID int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Key menserialisasi filter menjadi cache key yang stabil.
func (f Filter) Key() string {
	return f.values().Encode()
}

func (f Filter) values() url.Values {
	v := url.Values{}
	set := func(name, val string) {
		if val != "" {
			v.Set(name, val)
		}
	}
	setInt := func(name string, val int64) {
		if val > 0 {
			v.Set(name, strconv.FormatInt(val, 10))
		}
	}
	set("search", strings.TrimSpace(f.Search))
	setInt("jenisId", f.JenisID)
	setInt("statusId", f.StatusID)
	setInt("year", f.Year)
	setInt("pengusulId", f.PengusulID)
	setInt("page", int64(f.Page))
	setInt("pageSize", int64(f.PageSize))
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	return v
}

// API adalah kontrak server yang dibutuhkan QueryCache; *Client memenuhinya.
type API interface {
	List(ctx context.Context, f Filter) (ListResult, error)
	UpdateStatus(ctx context.Context, id, statusID int64) error
	BulkDelete(ctx context.Context, ids []int64) error
}

// Client memanggil API backend HKI lewat HTTP.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError membawa status dan pesan error dari server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e APIError) Error() string {
	return fmt.Sprintf("server merespons %d: %s", e.StatusCode, e.Message)
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	msg := "terjadi kesalahan pada server"
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Message != "" {
			msg = payload.Message
		} else if payload.Err != "" {
			msg = payload.Err
		}
	}
	return APIError{StatusCode: resp.StatusCode, Message: msg}
}

// List mengambil satu halaman data sesuai filter.
func (c *Client) List(ctx context.Context, f Filter) (ListResult, error) {
	var out ListResult
	err := c.do(ctx, http.MethodGet, "/api/hki?"+f.values().Encode(), nil, "", &out)
	return out, err
}

// FormOptions mengambil daftar lookup; panggil sekali saat halaman dimuat.
func (c *Client) FormOptions(ctx context.Context) (FormOptions, error) {
	var out FormOptions
	err := c.do(ctx, http.MethodGet, "/api/form-options", nil, "", &out)
	return out, err
}

// UpdateStatus mengganti status satu record.
func (c *Client) UpdateStatus(ctx context.Context, id, statusID int64) error {
	body, err := json.Marshal(map[string]int64{"statusId": statusID})
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/hki/%d/status", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	return nil
}

// BulkDelete menghapus sekumpulan record.
func (c *Client) BulkDelete(ctx context.Context, ids []int64) error {
	body, err := json.Marshal(map[string][]int64{"ids": ids})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/hki/bulk-delete", bytes.NewReader(body), "application/json", nil)
}

// CreateInput adalah payload form create; File opsional.
type CreateInput struct {
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

	Filename string
	File     io.Reader
}

// Create mengirim form multipart pembuatan record baru.
func (c *Client) Create(ctx context.Context, in CreateInput) (Record, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"nama_hki":         in.NamaHki,
		"nama_pemohon":     in.NamaPemohon,
		"alamat":           in.Alamat,
		"jenis_produk":     in.JenisProduk,
		"keterangan":       in.Keterangan,
		"tahun_fasilitasi": strconv.FormatInt(in.TahunFasilitasi, 10),
		"id_jenis_hki":     strconv.FormatInt(in.IDJenisHki, 10),
		"id_status":        strconv.FormatInt(in.IDStatus, 10),
		"id_pengusul":      strconv.FormatInt(in.IDPengusul, 10),
	}
	if in.IDKelas > 0 {
		fields["id_kelas"] = strconv.FormatInt(in.IDKelas, 10)
	}
	for name, val := range fields {
		if err := w.WriteField(name, val); err != nil {
			return Record{}, err
		}
	}
	if in.File != nil {
		part, err := w.CreateFormFile("file", in.Filename)
		if err != nil {
			return Record{}, err
		}
		if _, err := io.Copy(part, in.File); err != nil {
			return Record{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Record{}, err
	}

	var out struct {
		Data Record `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/hki", &buf, w.FormDataContentType(), &out)
	return out.Data, err
}
