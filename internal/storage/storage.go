package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service stores listing photos and returns the reference used to display them.
type Service interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ObjectKey derives the stored name of an upload: <field>-<unix millis>-<random><ext>.
// The random part keeps uploads within the same millisecond apart.
func ObjectKey(field, filename string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s%s", field, now.UnixMilli(), suffix, strings.ToLower(filepath.Ext(filename)))
}
