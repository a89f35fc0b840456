// Package images turns local image files and image URLs into base64 payloads
// a chat model can consume.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

// Source tells where an image came from.
type Source string

const (
	SourceLocal Source = "local"
	SourceURL   Source = "url"
)

// Image is an encoded image ready to attach to a message.
type Image struct {
	Key      string // file path or URL as given by the user
	Source   Source
	MIMEType string
	Data     string // base64, standard encoding
}

// DataURL returns the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Data
}

// Ingestor validates, fetches and encodes images.
type Ingestor struct {
	client  *http.Client
	maxSize int64
}

// NewIngestor returns an Ingestor using client for remote images. A nil
// client gets one with constants.DefaultImageTimeout.
func NewIngestor(client *http.Client) *Ingestor {
	if client == nil {
		client = logging.NewHTTPClient(constants.DefaultImageTimeout)
	}
	return &Ingestor{client: client, maxSize: constants.MaxImageSize}
}

// IsURL reports whether s is an http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Ingest encodes arg, fetching it first when it is a URL.
func (in *Ingestor) Ingest(ctx context.Context, arg string) (Image, error) {
	if IsURL(arg) {
		return in.FetchRemote(ctx, arg)
	}
	return in.EncodeLocal(arg)
}

// ValidateRemote reports whether rawURL is reachable and serves an image/* content type.
func (in *Ingestor) ValidateRemote(ctx context.Context, rawURL string) bool {
	resp, err := in.get(ctx, rawURL)
	if err != nil {
		logging.Debug("image url validation failed", "url", rawURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, err = imageContentType(resp)
	return err == nil
}

// FetchRemote downloads and encodes the image at rawURL. The content type is
// checked before the body is read.
func (in *Ingestor) FetchRemote(ctx context.Context, rawURL string) (Image, error) {
	const op = "fetch image"
	if !IsURL(rawURL) {
		return Image{}, apperr.Validation(op, "not an http(s) URL: "+rawURL)
	}

	resp, err := in.get(ctx, rawURL)
	if err != nil {
		return Image{}, apperr.Transport(op, err)
	}
	defer resp.Body.Close()

	mediaType, err := imageContentType(resp)
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%s: %w", rawURL, err))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, in.maxSize+1))
	if err != nil {
		return Image{}, apperr.Transport(op, err)
	}
	if int64(len(data)) > in.maxSize {
		return Image{}, apperr.Validation(op, fmt.Sprintf("%s exceeds %d bytes", rawURL, in.maxSize))
	}

	return Image{
		Key:      rawURL,
		Source:   SourceURL,
		MIMEType: mediaType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// EncodeLocal reads and encodes the image file at path. The bytes must
// decode as a supported image format.
func (in *Ingestor) EncodeLocal(path string) (Image, error) {
	const op = "encode image"

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Image{}, apperr.NotFound(op, "image not found: "+path)
		}
		if errors.Is(err, fs.ErrPermission) {
			return Image{}, apperr.Permission(op, "permission denied: "+path)
		}
		return Image{}, apperr.Wrap(apperr.KindValidation, op, err)
	}
	if info.IsDir() {
		return Image{}, apperr.Validation(op, path+" is a directory")
	}
	if info.Size() > in.maxSize {
		return Image{}, apperr.Validation(op, fmt.Sprintf("%s exceeds %d bytes", path, in.maxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Image{}, apperr.Permission(op, "permission denied: "+path)
		}
		return Image{}, apperr.Wrap(apperr.KindValidation, op, err)
	}

	mediaType, err := DetectMIME(data)
	if err != nil {
		return Image{}, apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%s: %w", path, err))
	}

	return Image{
		Key:      path,
		Source:   SourceLocal,
		MIMEType: mediaType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// DetectMIME returns the image/* type of data by decoding its header.
func DetectMIME(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported or corrupt image: %w", err)
	}
	return "image/" + format, nil
}

func (in *Ingestor) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constants.AppName)
	resp, err := in.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func imageContentType(resp *http.Response) (string, error) {
	ct := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("content type %q is not an image", ct)
	}
	return mediaType, nil
}
