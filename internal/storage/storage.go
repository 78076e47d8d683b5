// Package storage is the gateway to the external system of record: a folder hierarchy of files
// and an append-only ledger. Two backends exist, Google Drive/Sheets and an S3-compatible bucket.
// Implementations never stage data on local disk; uploads stream from the caller's reader.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"depotapi/internal/model"
)

// PutObjectOptions define optional parameters for uploading files.
// Size should be the exact number of bytes if known, -1 otherwise.
// ContentType defaults to ContentTypeFor(name).
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// StoredFile describes an uploaded file.
type StoredFile struct {
	ID          string
	Name        string
	Link        string
	ContentType string
	Size        int64
}

// FileStore manages folders and files.
type FileStore interface {
	// CreateFolder creates name under parentID and returns the new folder id.
	// Folders are not deduplicated; two calls create two folders.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	// Upload stores r as name inside parentID.
	Upload(ctx context.Context, parentID, name string, r io.Reader, opt PutObjectOptions) (StoredFile, error)
	// Download streams the content of a file. The caller closes the reader.
	Download(ctx context.Context, id string) (io.ReadCloser, error)
	// Ping checks that the backend is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// Ledger appends rows to a tabular log. Rows are never updated or deleted.
type Ledger interface {
	AppendRows(ctx context.Context, ledgerID, rng string, rows []model.LedgerRow) error
}

// Gateway is a complete backend, constructed once and closed at exit.
type Gateway interface {
	FileStore
	Ledger
	Close() error
}

// ContentTypeFor derives the MIME type of an upload from its name:
// PDF documents by extension, everything else is treated as a JPEG photo.
func ContentTypeFor(name string) string {
	if strings.EqualFold(path.Ext(name), ".pdf") {
		return "application/pdf"
	}
	return "image/jpeg"
}

func contentType(name string, opt PutObjectOptions) string {
	if opt.ContentType != "" {
		return opt.ContentType
	}
	return ContentTypeFor(name)
}
