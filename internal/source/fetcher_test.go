package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// TestFetchLatest tests the two-call metadata + download sequence
func TestFetchLatest(t *testing.T) {
	payload := []byte("tarball-bytes")
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/op/latest":
			fmt.Fprintf(w, `{"version": "1.2.3", "dist": {"tarball": "%s/op/-/op-1.2.3.tgz"}}`, server.URL)
		case "/op/-/op-1.2.3.tgz":
			w.Write(payload)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := NewFetcher(server.URL, zerolog.Nop())
	archive, err := f.FetchLatest(context.Background(), "op")
	if err != nil {
		t.Fatalf("Expected fetch to succeed, got: %v", err)
	}
	if !bytes.Equal(archive, payload) {
		t.Errorf("Expected downloaded bytes %q, got %q", payload, archive)
	}
}

// TestFetchLatest_MetadataNotFound tests that a 404 lookup fails at the
// metadata stage.
func TestFetchLatest_MetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, zerolog.Nop())
	_, err := f.FetchLatest(context.Background(), "nope")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
	if fetchErr.Stage != "metadata" {
		t.Errorf("Expected metadata stage, got: %s", fetchErr.Stage)
	}
}

// TestFetchLatest_MalformedMetadata tests that metadata without a tarball
// URL is a metadata-stage failure.
func TestFetchLatest_MalformedMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "1.0.0"}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, zerolog.Nop())
	_, err := f.FetchLatest(context.Background(), "op")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
	if fetchErr.Stage != "metadata" {
		t.Errorf("Expected metadata stage, got: %s", fetchErr.Stage)
	}
}

// TestFetchLatest_DownloadFailure tests that a failing tarball GET is a
// download-stage failure.
func TestFetchLatest_DownloadFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/op/latest" {
			fmt.Fprintf(w, `{"version": "1.0.0", "dist": {"tarball": "%s/gone.tgz"}}`, server.URL)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, zerolog.Nop())
	_, err := f.FetchLatest(context.Background(), "op")

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got: %v", err)
	}
	if fetchErr.Stage != "download" {
		t.Errorf("Expected download stage, got: %s", fetchErr.Stage)
	}
}
