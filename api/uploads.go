package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/google/uuid"
	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
	"github.com/jrsteele09/oa-client/request"
)

const (
	// DefaultChunkSize matches the backend's expected chunk size.
	DefaultChunkSize int64 = 5 << 20

	uploadPath       = "/api/upload"
	uploadChunkPath  = "/api/upload/chunk"
	uploadMovePath   = "/api/upload/move"
	uploadDeletePath = "/api/upload/delete"

	maxNameLength = 100
	maxExtLength  = 10
)

type Uploads struct {
	client *request.Client
	// ChunkSize is used by UploadChunked when no size is given.
	ChunkSize int64
}

// Upload sends a whole file in one multipart request. Without targetPath the
// server keeps it in its temporary upload folder.
func (u *Uploads) Upload(ctx context.Context, name string, r io.Reader, targetPath string) (*UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "upload needs a file name")
	}

	fields := map[string]string{}
	if targetPath != "" {
		fields["target_path"] = targetPath
	}
	body, contentType, err := multipartBody("file", SanitizeFilename(name), r, fields)
	if err != nil {
		return nil, err
	}

	var out UploadResult
	if err := u.client.Post(ctx, uploadPath, body, &out, request.WithMultipart(contentType)); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadChunked sends size bytes from r as sequential chunks sharing one
// file identifier. The target path travels with the final chunk, and the
// final chunk's response describes the assembled file.
func (u *Uploads) UploadChunked(ctx context.Context, name string, r io.Reader, size, chunkSize int64, targetPath string) (*UploadResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "upload needs a file name")
	}
	if size <= 0 {
		return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "upload size must be positive, got %d", size)
	}
	if chunkSize <= 0 {
		chunkSize = u.ChunkSize
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	total := (size + chunkSize - 1) / chunkSize
	identifier := fmt.Sprintf("%s-%d-%s", SanitizeFilename(name), size, uuid.New().String())

	var out UploadResult
	for i := int64(0); i < total; i++ {
		n := chunkSize
		if remaining := size - i*chunkSize; remaining < n {
			n = remaining
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, oaerrors.Wrapf(oaerrors.ErrInvalidInput, "reading chunk %d of %d: %v", i+1, total, err)
		}

		fields := map[string]string{
			"chunk_index":     strconv.FormatInt(i, 10),
			"total_chunks":    strconv.FormatInt(total, 10),
			"filename":        name,
			"file_identifier": identifier,
		}
		last := i == total-1
		if last && targetPath != "" {
			fields["target_path"] = targetPath
		}

		body, contentType, err := multipartBody("chunk", "blob", bytes.NewReader(chunk), fields)
		if err != nil {
			return nil, err
		}

		var dst any
		if last {
			dst = &out
		}
		if err := u.client.Post(ctx, uploadChunkPath, body, dst, request.WithMultipart(contentType)); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

type moveRequest struct {
	SourcePath string `json:"source_path" validate:"required"`
	TargetPath string `json:"target_path" validate:"required"`
}

func (u *Uploads) Move(ctx context.Context, sourcePath, targetPath string) (*MoveResult, error) {
	req := moveRequest{SourcePath: sourcePath, TargetPath: targetPath}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var out MoveResult
	if err := u.client.Post(ctx, uploadMovePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type deleteRequest struct {
	FilePath string `json:"file_path" validate:"required"`
}

// Delete moves a file into the server's deleted folder.
func (u *Uploads) Delete(ctx context.Context, filePath string) (*DeleteResult, error) {
	req := deleteRequest{FilePath: filePath}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	var out DeleteResult
	if err := u.client.Post(ctx, uploadDeletePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SanitizeFilename replaces characters Windows rejects with '_' and caps the
// base name at 100 and the extension at 10 characters.
func SanitizeFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)

	runes := []rune(sanitized)
	dot := strings.LastIndex(sanitized, ".")
	if dot == -1 {
		if len(runes) > maxNameLength {
			return string(runes[:maxNameLength])
		}
		return sanitized
	}

	base, ext := []rune(sanitized[:dot]), []rune(sanitized[dot:])
	if len(base) > maxNameLength {
		base = base[:maxNameLength]
	}
	if len(ext) > maxExtLength {
		ext = ext[:maxExtLength]
	}
	return string(base) + string(ext)
}

func multipartBody(fileField, fileName string, r io.Reader, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", oaerrors.Wrapf(oaerrors.ErrInternal, "multipart field %s: %v", k, err)
		}
	}
	part, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, "", oaerrors.Wrapf(oaerrors.ErrInternal, "multipart file: %v", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", oaerrors.Wrapf(oaerrors.ErrInvalidInput, "reading upload: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", oaerrors.Wrapf(oaerrors.ErrInternal, "multipart close: %v", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
