package documents

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycdesk/pkg/domain-errors"
)

func TestStoredName(t *testing.T) {
	assert.Equal(t, "abc_rekening-koran-mei.pdf", StoredName("abc", "Rekening Koran Mei.PDF"))
	assert.Equal(t, "abc_passwd", StoredName("abc", "../../etc/passwd"))
	assert.Equal(t, "abc_document", StoredName("abc", ""))
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, 16)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("saves and deletes", func(t *testing.T) {
		stored, err := store.Save(ctx, "bank statement.pdf", strings.NewReader("%PDF-1.7"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored.URL, URLPrefix))
		assert.Equal(t, int64(8), stored.Size)

		content, err := os.ReadFile(filepath.Join(dir, stored.Name))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(content))

		require.NoError(t, store.Delete(ctx, stored.URL))
		_, err = os.Stat(filepath.Join(dir, stored.Name))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects empty files", func(t *testing.T) {
		_, err := store.Save(ctx, "empty.pdf", strings.NewReader(""))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		_, err := store.Save(ctx, "big.pdf", strings.NewReader(strings.Repeat("x", 17)))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})

	t.Run("ignores traversal on delete", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "/files/../secret"))
	})
}
