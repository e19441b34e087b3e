package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListBuildsQueryAndDecodesPage(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ListResult{
			TotalCount: 42,
			Data: []Record{
				{
					ID:      10,
					NamaHki: "Batik Tulis Lasem",
					Status:  &StatusOption{ID: 1, Nama: "Dalam Proses"},
					Kelas:   &KelasOption{ID: 24, Nama: "Kelas 24", Tipe: "barang"},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "token-admin")
	res, err := c.List(context.Background(), Filter{
		Search:   "batik",
		StatusID: 1,
		Year:     2024,
		Page:     2,
		PageSize: 25,
		SortBy:   "nama_pemohon",
	})
	require.NoError(t, err)

	require.Equal(t, "/api/hki", gotPath)
	require.Equal(t, "Bearer token-admin", gotAuth)
	require.Equal(t, []string{"batik"}, gotQuery["search"])
	require.Equal(t, []string{"1"}, gotQuery["statusId"])
	require.Equal(t, []string{"2024"}, gotQuery["year"])
	require.Equal(t, []string{"2"}, gotQuery["page"])
	require.Equal(t, []string{"25"}, gotQuery["pageSize"])
	require.Equal(t, []string{"nama_pemohon"}, gotQuery["sortBy"])
	require.NotContains(t, gotQuery, "jenisId", "inactive filter must not be sent")

	require.EqualValues(t, 42, res.TotalCount)
	require.Len(t, res.Data, 1)
	require.Equal(t, "Dalam Proses", res.Data[0].Status.Nama)
	require.NotNil(t, res.Data[0].Kelas)
	require.Equal(t, "Kelas 24", res.Data[0].Kelas.Nama)
}

func TestUpdateStatusSendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.UpdateStatus(context.Background(), 10, 2))

	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "/api/hki/10/status", gotPath)
	require.EqualValues(t, 2, gotBody["statusId"])
}

func TestBulkDeletePostsIDs(t *testing.T) {
	var gotBody map[string][]int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/hki/bulk-delete", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	require.NoError(t, c.BulkDelete(context.Background(), []int64{10, 11}))
	require.Equal(t, []int64{10, 11}, gotBody["ids"])
}

func TestErrorResponseBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "data hki tidak ditemukan"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.List(context.Background(), Filter{})

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "data hki tidak ditemukan", apiErr.Message)
}

func TestCreateSendsMultipartWithFile(t *testing.T) {
	var gotFields map[string]string
	var gotFile []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for name, vals := range r.MultipartForm.Value {
			gotFields[name] = vals[0]
		}
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		buf := make([]byte, 16)
		n, _ := f.Read(buf)
		gotFile = buf[:n]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]Record{"data": {ID: 99, NamaHki: "Kopi Gayo"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	rec, err := c.Create(context.Background(), CreateInput{
		NamaHki:         "Kopi Gayo",
		NamaPemohon:     "Dinas Pertanian Aceh",
		TahunFasilitasi: 2024,
		IDJenisHki:      3,
		IDStatus:        1,
		IDPengusul:      2,
		Filename:        "sertifikat.pdf",
		File:            strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	require.EqualValues(t, 99, rec.ID)

	require.Equal(t, "Kopi Gayo", gotFields["nama_hki"])
	require.Equal(t, "Dinas Pertanian Aceh", gotFields["nama_pemohon"])
	require.Equal(t, "2024", gotFields["tahun_fasilitasi"])
	require.NotContains(t, gotFields, "id_kelas", "unset kelas must not be sent")
	require.Equal(t, "%PDF-1.4", string(gotFile))
}
