package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"depotapi/internal/config"
	ierr "depotapi/internal/errors"
	"depotapi/internal/model"
)

// LinkExpiry is the validity of the pre-signed links returned for uploaded files.
const LinkExpiry = 7 * 24 * time.Hour

// minioStorage implements Gateway on an S3-compatible backend (MinIO, AWS S3, etc.).
// Folders are key prefixes marked by an empty "<prefix>/" object, and the ledger is a CSV object.
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string

	// ledgerMu serializes the read-modify-write of ledger objects within this process.
	ledgerMu sync.Mutex
}

// NewMinIO creates a new S3-compatible gateway backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Gateway, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStorage{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// objectKey joins a folder id and a name. Slashes in name cannot create extra levels.
func objectKey(parentID, name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	if parentID == "" {
		return name
	}
	return path.Join(parentID, name)
}

func (m *minioStorage) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := objectKey(parentID, name)
	_, err := m.client.PutObject(ctx, m.bucket, key+"/", bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/x-directory",
	})
	if err != nil {
		return "", externalErr(err, "create folder %q", key)
	}
	return key, nil
}

// Upload streams r into the bucket and returns a pre-signed link to it.
func (m *minioStorage) Upload(ctx context.Context, parentID, name string, r io.Reader, opt PutObjectOptions) (StoredFile, error) {
	key := objectKey(parentID, name)
	ct := contentType(name, opt)
	size := opt.Size
	if size == 0 {
		size = -1
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  ct,
		UserMetadata: opt.Metadata,
	})
	if err != nil {
		return StoredFile{}, externalErr(err, "upload %q", key)
	}

	link, err := m.client.PresignedGetObject(ctx, m.bucket, key, LinkExpiry, url.Values{})
	if err != nil {
		return StoredFile{}, externalErr(err, "presign %q", key)
	}
	return StoredFile{
		ID:          key,
		Name:        name,
		Link:        link.String(),
		ContentType: ct,
		Size:        info.Size,
	}, nil
}

// Download stats the object first so a missing key fails here rather than on the first read.
func (m *minioStorage) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, externalErr(err, "download %q", id)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, externalErr(err, "download %q", id)
	}
	return obj, nil
}

func (m *minioStorage) Ping(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return externalErr(err, "ping bucket %q", m.bucket)
	}
	if !ok {
		return ierr.NewErrorf("bucket %q does not exist", m.bucket).
			WithHint("stockage indisponible").
			Mark(ierr.ErrExternalService)
	}
	return nil
}

// AppendRows rewrites the CSV object ledgerID with rows added at the end.
// The header is written when the object is created. rng is ignored.
func (m *minioStorage) AppendRows(ctx context.Context, ledgerID, _ string, rows []model.LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}
	m.ledgerMu.Lock()
	defer m.ledgerMu.Unlock()

	var buf bytes.Buffer
	existing, err := m.Download(ctx, ledgerID)
	switch {
	case err == nil:
		_, err = io.Copy(&buf, existing)
		existing.Close()
		if err != nil {
			return externalErr(err, "read ledger %q", ledgerID)
		}
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
		err = gocsv.MarshalWithoutHeaders(rows, &buf)
	case ierr.IsNotFound(err):
		err = gocsv.Marshal(rows, &buf)
	default:
		return err
	}
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	_, err = m.client.PutObject(ctx, m.bucket, ledgerID, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return externalErr(err, "write ledger %q", ledgerID)
	}
	return nil
}

func (m *minioStorage) Close() error { return nil }

func externalErr(err error, format string, args ...any) error {
	if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return ierr.WithError(err).
			WithMessagef(format, args...).
			WithHint("fichier introuvable").
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithMessagef(format, args...).
		WithHint("le service de stockage est indisponible").
		Mark(ierr.ErrExternalService)
}
