// Package blob menyimpan file sertifikat HKI di object storage.
// Backend produksi adalah bucket S3-compatible; backend memory dipakai di test.
package blob

import (
	"context"
	"io"
)

// Store adalah kontrak minimal yang dibutuhkan jalur upload sertifikat:
// simpan, ambil, hapus. Key dipetakan langsung ke object key pada bucket.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
