// Package attachment turns uploaded files into the inline data URLs stored on
// incidents, and back.
package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

var (
	ErrTooLarge   = errors.New("attachment: file exceeds size limit")
	ErrNotDataURL = errors.New("attachment: not a data URL")
)

// Source is one uploaded file.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromBytes wraps in-memory content as a Source.
func FromBytes(name string, data []byte) Source {
	return Source{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

// FromMultipart adapts multipart form files.
func FromMultipart(headers []*multipart.FileHeader) []Source {
	out := make([]Source, 0, len(headers))
	for _, fh := range headers {
		out = append(out, Source{Name: fh.Filename, Open: func() (io.ReadCloser, error) {
			return fh.Open()
		}})
	}
	return out
}

// Encode reads every source concurrently and returns the encoded files in
// input order. If any file fails the whole call fails and nothing is returned.
// maxBytes <= 0 disables the size check.
func Encode(ctx context.Context, sources []Source, maxBytes int64) ([]domain.IncidentFile, error) {
	out := make([]domain.IncidentFile, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			f, err := encodeOne(gctx, src, maxBytes)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", src.Name, err)
			}
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeOne(ctx context.Context, src Source, maxBytes int64) (domain.IncidentFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.IncidentFile{}, err
	}
	rc, err := src.Open()
	if err != nil {
		return domain.IncidentFile{}, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.IncidentFile{}, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return domain.IncidentFile{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return domain.IncidentFile{}, err
	}

	return domain.IncidentFile{
		Name: src.Name,
		URL:  "data:" + mediaType(src.Name, data) + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// mediaType guesses from the extension first, then sniffs content.
func mediaType(name string, data []byte) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if t == "" {
		t = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return "application/octet-stream"
}

// Decode parses a data URL into its media type and content.
func Decode(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	if meta == "" {
		meta = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("attachment: bad base64 payload: %w", err)
		}
		return meta, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("attachment: bad payload: %w", err)
	}
	return meta, []byte(text), nil
}

// Merge appends added to existing without modifying either.
func Merge(existing, added []domain.IncidentFile) []domain.IncidentFile {
	out := make([]domain.IncidentFile, 0, len(existing)+len(added))
	out = append(out, existing...)
	return append(out, added...)
}

// Remove drops every file called name.
func Remove(files []domain.IncidentFile, name string) []domain.IncidentFile {
	out := make([]domain.IncidentFile, 0, len(files))
	for _, f := range files {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the first file called name.
func Find(files []domain.IncidentFile, name string) (domain.IncidentFile, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return domain.IncidentFile{}, false
}
