package intake

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFile(name, content string) File {
	return File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// sizedFile reports a size without backing content, for limit checks that
// never read the body.
func sizedFile(name string, size int64) File {
	return File{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("stub content")), nil
		},
	}
}

func TestValidateBatchAcceptsSupportedFiles(t *testing.T) {
	v := NewValidator(nil)
	res, err := v.ValidateBatch([]File{
		memFile("deck.txt", "we build solar microgrids"),
		memFile("plan.md", "# business plan"),
		memFile("data.json", `{"revenue": 100}`),
	})
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 3)
	assert.Empty(t, res.Reasons)
	assert.Empty(t, res.Warnings)
}

func TestValidateBatchPerFileRejections(t *testing.T) {
	v := NewValidator(nil)

	t.Run("empty file", func(t *testing.T) {
		res, err := v.ValidateBatch([]File{sizedFile("empty.txt", 0)})
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		require.Len(t, res.Reasons, 1)
		assert.Contains(t, res.Reasons[0], "empty")
	})

	t.Run("nameless file", func(t *testing.T) {
		res, err := v.ValidateBatch([]File{sizedFile("  ", 10)})
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		require.Len(t, res.Reasons, 1)
		assert.Contains(t, res.Reasons[0], "no name")
	})

	t.Run("oversized file", func(t *testing.T) {
		res, err := v.ValidateBatch([]File{sizedFile("huge.pdf", 11<<20)})
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		require.Len(t, res.Reasons, 1)
		assert.Contains(t, res.Reasons[0], "too large")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		res, err := v.ValidateBatch([]File{memFile("movie.mp4", "binary")})
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		require.Len(t, res.Reasons, 1)
		assert.Contains(t, res.Reasons[0], "unsupported file type")
	})

	t.Run("unreadable file", func(t *testing.T) {
		f := File{
			Name: "broken.txt",
			Size: 10,
			Open: func() (io.ReadCloser, error) { return nil, errors.New("disk error") },
		}
		res, err := v.ValidateBatch([]File{f})
		require.NoError(t, err)
		assert.Empty(t, res.Accepted)
		require.Len(t, res.Reasons, 1)
		assert.Contains(t, res.Reasons[0], "cannot be read")
	})

	t.Run("rejection does not sink the rest of the batch", func(t *testing.T) {
		res, err := v.ValidateBatch([]File{
			memFile("movie.mp4", "binary"),
			memFile("deck.txt", "solar microgrids"),
		})
		require.NoError(t, err)
		assert.Len(t, res.Accepted, 1)
		assert.Len(t, res.Reasons, 1)
	})
}

func TestValidateBatchPDFMagicIsWarningOnly(t *testing.T) {
	v := NewValidator(nil)

	res, err := v.ValidateBatch([]File{memFile("real.pdf", "%PDF-1.7 rest of file")})
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Warnings)

	res, err = v.ValidateBatch([]File{memFile("fake.pdf", "just plain text")})
	require.NoError(t, err)
	assert.Len(t, res.Accepted, 1, "suspicious PDFs are still accepted")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "may not be a valid PDF")
}

func TestValidateBatchLimits(t *testing.T) {
	v := NewValidator(nil)

	t.Run("combined size over 50MB rejects the batch", func(t *testing.T) {
		// Each file passes the 10MB per-file check; the total does not.
		var files []File
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			files = append(files, sizedFile(name+".pdf", 9<<20))
		}
		_, err := v.ValidateBatch(files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "combined file size must be under 50MB")
	})

	t.Run("more than five files rejects the batch", func(t *testing.T) {
		var files []File
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			files = append(files, memFile(name+".txt", "content for "+name))
		}
		_, err := v.ValidateBatch(files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "maximum 5 files allowed")
	})
}
