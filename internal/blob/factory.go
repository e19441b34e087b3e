package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a Store implementation using environment variables.
//
//	HKI_BLOB_DRIVER: s3|memory (default memory)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("HKI_BLOB_DRIVER")
	if driver == "" {
		driver = "memory"
	}
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "s3":
		return OpenS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("driver blob tidak dikenal: %s", driver)
	}
}
