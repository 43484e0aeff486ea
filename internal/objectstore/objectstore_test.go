package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"storefront/internal/domain"

	"github.com/minio/minio-go/v7"
)

type stubClient struct {
	exists     bool
	existsErr  error
	made       string
	putErr     error
	lastBucket string
	lastObject string
	lastSize   int64
	lastType   string
	lastBody   string
	removed    []string
	removeErr  error
}

func (s *stubClient) PutObject(_ context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.lastBucket = bucket
	s.lastObject = object
	s.lastSize = size
	s.lastType = opts.ContentType
	b, _ := io.ReadAll(r)
	s.lastBody = string(b)
	return minio.UploadInfo{Bucket: bucket, Key: object}, s.putErr
}

func (s *stubClient) RemoveObject(_ context.Context, _ string, object string, _ minio.RemoveObjectOptions) error {
	s.removed = append(s.removed, object)
	return s.removeErr
}

func (s *stubClient) BucketExists(_ context.Context, _ string) (bool, error) {
	return s.exists, s.existsErr
}

func (s *stubClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	s.made = bucket
	return nil
}

func TestStorePut(t *testing.T) {
	client := &stubClient{}
	store := newStore(client, "shop", "http://cdn.local/shop/", nil)

	img, err := store.Put(context.Background(), "products", domain.Upload{
		Filename:    "Photo.JPG",
		ContentType: "image/jpeg",
		Size:        3,
		Body:        strings.NewReader("abc"),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(img.PublicID, "products/") || !strings.HasSuffix(img.PublicID, ".jpg") {
		t.Fatalf("unexpected key %q", img.PublicID)
	}
	if img.URL != "http://cdn.local/shop/"+img.PublicID {
		t.Fatalf("unexpected url %q", img.URL)
	}
	if client.lastBucket != "shop" || client.lastObject != img.PublicID || client.lastSize != 3 || client.lastType != "image/jpeg" || client.lastBody != "abc" {
		t.Fatalf("unexpected put call %+v", client)
	}
}

func TestStorePutRejectsNonImages(t *testing.T) {
	client := &stubClient{}
	store := newStore(client, "shop", "http://cdn.local/shop", nil)

	_, err := store.Put(context.Background(), "products", domain.Upload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if client.lastObject != "" {
		t.Fatalf("expected no upload")
	}
}

func TestStorePutUnknownSize(t *testing.T) {
	client := &stubClient{}
	store := newStore(client, "shop", "http://cdn.local/shop", nil)

	if _, err := store.Put(context.Background(), "profiles", domain.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if client.lastSize != -1 {
		t.Fatalf("expected size -1 for unknown length, got %d", client.lastSize)
	}
}

func TestStoreEnsureBucket(t *testing.T) {
	client := &stubClient{exists: false}
	store := newStore(client, "shop", "http://x", nil)
	if err := store.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if client.made != "shop" {
		t.Fatalf("expected bucket to be created")
	}

	existing := &stubClient{exists: true}
	store = newStore(existing, "shop", "http://x", nil)
	if err := store.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if existing.made != "" {
		t.Fatalf("expected no bucket creation")
	}
}

func TestStoreDelete(t *testing.T) {
	client := &stubClient{}
	store := newStore(client, "shop", "http://x", nil)
	if err := store.Delete(context.Background(), ""); err != nil {
		t.Fatalf("Delete empty: %v", err)
	}
	if len(client.removed) != 0 {
		t.Fatalf("expected no remove for empty id")
	}
	if err := store.Delete(context.Background(), "products/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(client.removed) != 1 || client.removed[0] != "products/a.png" {
		t.Fatalf("unexpected removals %v", client.removed)
	}
}
