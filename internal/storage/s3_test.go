package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestS3UploaderSignsAndUploads(t *testing.T) {
	var gotAuth, gotSHA, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSHA = r.Header.Get("x-amz-content-sha256")
		gotPath = r.URL.Path
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up, err := NewS3Uploader(S3Config{
		Endpoint:     srv.URL,
		Region:       "auto",
		Bucket:       "econara",
		AccessKey:    "ak",
		SecretKey:    "sk",
		PublicDomain: "https://cdn.econara.id",
	})
	if err != nil {
		t.Fatalf("new uploader: %v", err)
	}

	res, err := up.Upload(context.Background(), UploadInput{
		Key:         "stock/user-1/item-1",
		Body:        []byte("jpeg-bytes"),
		ContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=ak/") {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotSHA == "" {
		t.Fatal("missing x-amz-content-sha256")
	}
	if gotPath != "/econara/stock/user-1/item-1" {
		t.Fatalf("path = %q", gotPath)
	}
	if res.URL != "https://cdn.econara.id/stock/user-1/item-1" {
		t.Fatalf("url = %q", res.URL)
	}
	if res.ETag != "abc123" {
		t.Fatalf("etag = %q", res.ETag)
	}
}

func TestS3ConfigValidation(t *testing.T) {
	_, err := NewS3Uploader(S3Config{Endpoint: "https://s3.example.com", Region: "auto"})
	if err == nil {
		t.Fatal("expected validation error for incomplete config")
	}
}
