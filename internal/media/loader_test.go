package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/tribunal/internal/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoader_LocalImage(t *testing.T) {
	path := writeFile(t, "dent.png", pngHeader)

	asset, err := NewLoader(nil, 1<<20).Load(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Equal(t, model.EvidenceKindImage, asset.Kind)
	assert.Equal(t, pngHeader, asset.Data)

	att := asset.Attachment()
	assert.True(t, att.IsImage())
	assert.Equal(t, asset.Data, att.Data)
}

func TestLoader_LocalAudioByExtension(t *testing.T) {
	path := writeFile(t, "testimony.webm", []byte("\x1a\x45\xdf\xa3rest"))

	asset, err := NewLoader(nil, 1<<20).Load(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", asset.MIMEType)
	assert.Equal(t, model.EvidenceKindAudio, asset.Kind)
}

func TestLoader_HintWins(t *testing.T) {
	path := writeFile(t, "blob.bin", []byte("abc"))

	asset, err := NewLoader(nil, 1<<20).Load(context.Background(), path, "audio/ogg")
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg", asset.MIMEType)
}

func TestLoader_Errors(t *testing.T) {
	loader := NewLoader(nil, 4)
	ctx := context.Background()

	_, err := loader.Load(ctx, "", "")
	assert.Error(t, err)

	_, err = loader.Load(ctx, filepath.Join(t.TempDir(), "missing.png"), "")
	assert.Error(t, err)

	_, err = loader.Load(ctx, writeFile(t, "empty.png", nil), "")
	assert.ErrorContains(t, err, "empty file")

	_, err = loader.Load(ctx, writeFile(t, "big.png", pngHeader), "")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = loader.Load(ctx, "https://example.com/a.png", "")
	assert.ErrorContains(t, err, "remote references are disabled")
}

func TestLoader_RemoteEvidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = fmt.Fprintf(w, "%s", pngHeader)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "tribunal-test", 1<<20, nil, "", "", "")
	loader := NewLoader(fetcher, 1<<20)

	asset, err := loader.LoadEvidence(context.Background(), model.Evidence{Ref: server.URL + "/photo?id=1"})
	require.NoError(t, err)
	// octet-stream falls through to sniffing
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Equal(t, model.EvidenceKindImage, asset.Kind)
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		hint     string
		declared string
		data     []byte
		want     string
	}{
		{"hint", "a.png", "image/webp", "", nil, "image/webp"},
		{"declared with params", "x", "", "image/jpeg; charset=binary", nil, "image/jpeg"},
		{"extension", "clip.m4a", "", "", []byte("x"), "audio/mp4"},
		{"extension with query", "https://h/clip.mp3?sig=1", "", "", []byte("x"), "audio/mpeg"},
		{"sniffed", "noext", "", "", pngHeader, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.ref, tt.hint, tt.declared, tt.data))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, model.EvidenceKindImage, KindOf("image/jpeg"))
	assert.Equal(t, model.EvidenceKindAudio, KindOf("audio/wav"))
	assert.Equal(t, model.EvidenceKindAudio, KindOf("video/webm"))
	assert.Equal(t, model.EvidenceKind(""), KindOf("text/plain"))
}
