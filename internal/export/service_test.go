package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docflow/constants"
	"github.com/joseph-ayodele/docflow/internal/entity"
)

type listerFunc func(context.Context, entity.DocumentFilter) ([]*entity.Document, error)

func (f listerFunc) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.Document, error) {
	return f(ctx, filter)
}

func TestExportDocumentsXLSX(t *testing.T) {
	created := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	var got entity.DocumentFilter
	svc := NewService(listerFunc(func(_ context.Context, f entity.DocumentFilter) ([]*entity.Document, error) {
		got = f
		return []*entity.Document{
			{
				ID: uuid.New(), Title: "Lease", Status: constants.DocumentSigned,
				Tags: []string{"housing", "lease"}, Summary: "A lease.",
				Signature: "data:image/png;base64,AAAA", CreatedAt: created,
			},
			{ID: uuid.New(), Title: "NDA", Status: constants.DocumentAwaitingSignature, CreatedAt: created},
		}, nil
	}), nil)

	out, err := svc.ExportDocumentsXLSX(context.Background(), entity.DocumentFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Status", "Tags", "Summary", "Created", "Signed"}, rows[0])
	assert.Equal(t, []string{"Lease", string(constants.DocumentSigned), "housing, lease", "A lease.", "2024-03-09", "TRUE"}, rows[1])
	assert.Equal(t, "NDA", rows[2][0])
	assert.Equal(t, "FALSE", rows[2][5])
}

func TestExportDocumentsXLSX_ListError(t *testing.T) {
	svc := NewService(listerFunc(func(context.Context, entity.DocumentFilter) ([]*entity.Document, error) {
		return nil, errors.New("db down")
	}), nil)
	_, err := svc.ExportDocumentsXLSX(context.Background(), entity.DocumentFilter{})
	assert.ErrorContains(t, err, "db down")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("é", 10), 4)), 4)
}
