// Package storage keeps catch photos in an S3-compatible bucket.
package storage

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "image"
    _ "image/gif"
    _ "image/jpeg"
    _ "image/png"
    "io"
    "net/url"
    "path"
    "strings"
    "time"

    "github.com/disintegration/imaging"
    "github.com/google/uuid"
    "github.com/minio/minio-go/v7"
    "github.com/minio/minio-go/v7/pkg/credentials"

    "github.com/iliyamo/fishtrack/internal/config"
)

var (
    ErrUploadFailed = errors.New("upload failed")
    ErrInvalidImage = errors.New("invalid image")
    ErrTooLarge     = errors.New("image too large")
)

// Variant names a resized copy stored next to the original.
type Variant string

const (
    VariantThumb  Variant = "thumb"
    VariantMedium Variant = "medium"
)

var variantDimensions = map[Variant]int{
    VariantThumb:  160,
    VariantMedium: 720,
}

// Photo describes an uploaded image.
type Photo struct {
    Key      string             `json:"key"`
    URL      string             `json:"url"`
    Variants map[Variant]string `json:"variants,omitempty"`
}

// PhotoStore uploads catch photos to MinIO.
type PhotoStore struct {
    client  *minio.Client
    bucket  string
    baseURL string
    maxSize int64
}

// NewPhotoStore connects to the configured endpoint.  It does not contact
// the server; call EnsureBucket at startup.
func NewPhotoStore(cfg config.StorageConfig) (*PhotoStore, error) {
    client, err := minio.New(cfg.Endpoint, &minio.Options{
        Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
        Secure: cfg.UseSSL,
    })
    if err != nil {
        return nil, fmt.Errorf("minio client: %w", err)
    }
    base := cfg.PublicBaseURL
    if base == "" {
        scheme := "http"
        if cfg.UseSSL {
            scheme = "https"
        }
        base = (&url.URL{Scheme: scheme, Host: cfg.Endpoint, Path: "/" + cfg.Bucket}).String()
    }
    return &PhotoStore{
        client:  client,
        bucket:  cfg.Bucket,
        baseURL: strings.TrimRight(base, "/"),
        maxSize: cfg.MaxUploadSize,
    }, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *PhotoStore) EnsureBucket(ctx context.Context) error {
    exists, err := s.client.BucketExists(ctx, s.bucket)
    if err != nil {
        return err
    }
    if !exists {
        return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
    }
    return nil
}

// Save validates that r holds a decodable image, uploads it under
// captures/<userID>/<uuid><ext> and stores resized JPEG variants.  Variant
// failures are not fatal; the original is what the record points to.
func (s *PhotoStore) Save(ctx context.Context, userID, filename, contentType string, r io.Reader) (Photo, error) {
    data, err := readLimited(r, s.maxSize)
    if err != nil {
        return Photo{}, err
    }
    img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
    if err != nil {
        return Photo{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
    }

    key := ObjectKey(userID, filename)
    if err := s.put(ctx, key, data, contentType); err != nil {
        return Photo{}, err
    }
    photo := Photo{Key: key, URL: s.URL(key), Variants: map[Variant]string{}}
    for v, dim := range variantDimensions {
        resized, err := Resize(img, dim)
        if err != nil {
            continue
        }
        name := VariantKey(key, v)
        if err := s.put(ctx, name, resized, "image/jpeg"); err == nil {
            photo.Variants[v] = s.URL(name)
        }
    }
    return photo, nil
}

// Presign returns a time-limited GET URL for a private bucket.
func (s *PhotoStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
    u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
    if err != nil {
        return "", err
    }
    return u.String(), nil
}

// URL returns the public URL of an object.
func (s *PhotoStore) URL(key string) string {
    return s.baseURL + "/" + key
}

func (s *PhotoStore) put(ctx context.Context, key string, data []byte, contentType string) error {
    _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
        ContentType: contentType,
    })
    if err != nil {
        return fmt.Errorf("%w: %v", ErrUploadFailed, err)
    }
    return nil
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
    if max <= 0 {
        return io.ReadAll(r)
    }
    data, err := io.ReadAll(io.LimitReader(r, max+1))
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
    }
    if int64(len(data)) > max {
        return nil, ErrTooLarge
    }
    return data, nil
}

// ObjectKey builds a fresh object name for a user's upload, keeping the
// lower-cased extension of the original file name.
func ObjectKey(userID, filename string) string {
    ext := strings.ToLower(path.Ext(filename))
    switch ext {
    case ".jpg", ".jpeg", ".png", ".gif":
    default:
        ext = ".jpg"
    }
    return "captures/" + userID + "/" + uuid.NewString() + ext
}

// VariantKey derives the object name of a resized copy.
func VariantKey(key string, v Variant) string {
    ext := path.Ext(key)
    return strings.TrimSuffix(key, ext) + "_" + string(v) + ".jpg"
}

// Resize fits img into a dim x dim box and encodes it as JPEG.
func Resize(img image.Image, dim int) ([]byte, error) {
    resized := imaging.Fit(img, dim, dim, imaging.Lanczos)
    var buf bytes.Buffer
    if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
        return nil, err
    }
    return buf.Bytes(), nil
}
