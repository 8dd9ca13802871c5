// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestKey(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	reportID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	tests := []struct {
		ext  string
		want string
	}{
		{ext: "pdf", want: "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.pdf"},
		{ext: ".PNG", want: "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.png"},
		{ext: "", want: "11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222.bin"},
	}

	for _, tt := range tests {
		if got := Key(userID, reportID, tt.ext); got != tt.want {
			t.Fatalf("Key(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestCleanKey(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"a/b.pdf":      "a/b.pdf",
		"a//b.pdf":     "a/b.pdf",
		"a/./b.txt":    "a/b.txt",
		" a/b.txt ":    "a/b.txt",
		"a/c/../b.png": "a/b.png",
	}

	for key, want := range valid {
		got, err := cleanKey(key)
		if err != nil {
			t.Fatalf("cleanKey(%q) returned error: %v", key, err)
		}

		if got != want {
			t.Fatalf("cleanKey(%q) = %q, want %q", key, got, want)
		}
	}

	for _, key := range []string{"", "   ", "/etc/passwd", "..", "../x", "a/../../x", `a\b`, "."} {
		if _, err := cleanKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("cleanKey(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestUploadSize(t *testing.T) {
	t.Parallel()

	t.Run("known size", func(t *testing.T) {
		t.Parallel()

		reader := bytes.NewReader([]byte("hello"))
		if _, err := reader.Seek(2, 0); err != nil {
			t.Fatalf("seek failed: %v", err)
		}

		size, err := uploadSize(reader, 5)
		if err != nil {
			t.Fatalf("uploadSize returned error: %v", err)
		}

		if size != 5 {
			t.Fatalf("size = %d, want 5", size)
		}

		if reader.Len() != 5 {
			t.Fatalf("reader was not rewound, %d bytes left", reader.Len())
		}
	})

	t.Run("unknown size", func(t *testing.T) {
		t.Parallel()

		size, err := uploadSize(strings.NewReader("abc"), -1)
		if err != nil {
			t.Fatalf("uploadSize returned error: %v", err)
		}

		if size != 3 {
			t.Fatalf("size = %d, want 3", size)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		t.Parallel()

		if _, err := uploadSize(strings.NewReader("abc"), 10); err == nil {
			t.Fatal("expected size mismatch error")
		}
	})

	t.Run("nil reader", func(t *testing.T) {
		t.Parallel()

		if _, err := uploadSize(nil, 1); !errors.Is(err, errUploadReaderNil) {
			t.Fatalf("error = %v, want errUploadReaderNil", err)
		}
	})
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	store, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, ok := store.(*Local); !ok {
		t.Fatalf("default backend = %T, want *Local", store)
	}

	store, err = New(Config{Backend: BackendWebDAV, WebDAVURL: "http://127.0.0.1:1/dav"})
	if err != nil {
		t.Fatalf("New(webdav) returned error: %v", err)
	}

	if _, ok := store.(*WebDAV); !ok {
		t.Fatalf("webdav backend = %T, want *WebDAV", store)
	}

	if _, err := New(Config{Backend: BackendWebDAV}); !errors.Is(err, errWebDAVURLRequired) {
		t.Fatalf("missing url error = %v, want errWebDAVURLRequired", err)
	}

	if _, err := New(Config{Backend: "s3"}); !errors.Is(err, errUnknownBackend) {
		t.Fatalf("unknown backend error = %v, want errUnknownBackend", err)
	}
}
