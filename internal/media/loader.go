// Package media loads testimony recordings and evidence images from local
// paths or http(s) URLs and hands them to the generation client.
package media

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/tribunal/internal/llm"
	"github.com/ppiankov/tribunal/internal/model"
)

// Asset is loaded media ready to be attached to a prompt
type Asset struct {
	Ref      string
	MIMEType string
	Kind     model.EvidenceKind
	Data     []byte
}

// Attachment converts the asset for the generation client
func (a Asset) Attachment() llm.Attachment {
	return llm.Attachment{MIMEType: a.MIMEType, Data: a.Data}
}

// Loader reads media from disk or fetches it over HTTP
type Loader struct {
	fetcher  *Fetcher
	maxBytes int64
}

// NewLoader creates a loader. fetcher may be nil, in which case remote
// references are rejected.
func NewLoader(fetcher *Fetcher, maxBytes int64) *Loader {
	return &Loader{fetcher: fetcher, maxBytes: maxBytes}
}

// Load reads the media behind ref. mimeHint wins over detection when set.
func (l *Loader) Load(ctx context.Context, ref, mimeHint string) (*Asset, error) {
	if ref == "" {
		return nil, fmt.Errorf("load media: empty reference")
	}

	var (
		data     []byte
		declared string
	)
	evidence := model.Evidence{Ref: ref}
	if evidence.IsRemote() {
		if l.fetcher == nil {
			return nil, fmt.Errorf("load media %s: remote references are disabled", ref)
		}
		result, err := l.fetcher.FetchWithRetry(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load media %s: %w", ref, err)
		}
		data = result.Data
		declared = result.ContentType
	} else {
		f, err := os.Open(ref)
		if err != nil {
			return nil, fmt.Errorf("load media: %w", err)
		}
		defer func() { _ = f.Close() }()
		data, err = readLimited(f, l.maxBytes)
		if err != nil {
			return nil, fmt.Errorf("load media %s: %w", ref, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("load media %s: empty file", ref)
	}

	mimeType := DetectMIME(ref, mimeHint, declared, data)
	return &Asset{
		Ref:      ref,
		MIMEType: mimeType,
		Kind:     KindOf(mimeType),
		Data:     data,
	}, nil
}

// LoadEvidence loads a stored evidence reference
func (l *Loader) LoadEvidence(ctx context.Context, e model.Evidence) (*Asset, error) {
	return l.Load(ctx, e.Ref, e.MIMEType)
}

// DetectMIME picks the media type from, in order: an explicit hint, a
// specific server-declared type, the file extension, then content sniffing.
func DetectMIME(ref, hint, declared string, data []byte) string {
	if hint != "" {
		return hint
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}

	path := ref
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if mt, ok := audioExtensions[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			if base, _, err := mime.ParseMediaType(mt); err == nil {
				return base
			}
		}
	}

	sniffed := http.DetectContentType(data)
	if base, _, err := mime.ParseMediaType(sniffed); err == nil {
		return base
	}
	return "application/octet-stream"
}

// audioExtensions covers recorder formats the platform mime table may lack
var audioExtensions = map[string]string{
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
}

// KindOf classifies a media type
func KindOf(mimeType string) model.EvidenceKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.EvidenceKindImage
	case strings.HasPrefix(mimeType, "audio/"), mimeType == "video/webm":
		return model.EvidenceKindAudio
	default:
		return ""
	}
}
