package storage

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func TestLocalStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	info, err := store.Save("scan.pdf", "application/pdf", strings.NewReader("%PDF-1.4 content"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if info.Name != "scan.pdf" || info.MimeType != "application/pdf" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Size != int64(len("%PDF-1.4 content")) {
		t.Errorf("Size = %d", info.Size)
	}
	if info.Status != "uploaded" {
		t.Errorf("Status = %q", info.Status)
	}

	got, err := store.Get(info.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Get returned wrong file")
	}

	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("GetFilePath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "%PDF-1.4 content" {
		t.Errorf("stored content = %q", data)
	}
}

func TestLocalStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get("nope"); err == nil {
		t.Error("expected error for unknown id")
	}
	if _, err := store.GetFilePath("nope"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestLocalStoreList(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.Save(fmt.Sprintf("f%d.png", i), "image/png", strings.NewReader("x")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	list, err := store.List(3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	// Most recent first.
	if list[0].Name != "f4.png" {
		t.Errorf("first listed = %q, want f4.png", list[0].Name)
	}
}

func TestLocalStoreDelete(t *testing.T) {
	store := newTestStore(t)

	info, _ := store.Save("x.png", "image/png", strings.NewReader("bytes"))
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(info.ID); err == nil {
		t.Error("file still retrievable after delete")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still on disk after delete")
	}
	if err := store.Delete(info.ID); err == nil {
		t.Error("double delete should fail")
	}
}

func TestLocalStoreRename(t *testing.T) {
	store := newTestStore(t)

	info, _ := store.Save("old.pdf", "application/pdf", strings.NewReader("x"))
	renamed, err := store.Rename(info.ID, "new.pdf")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "new.pdf" {
		t.Errorf("Name = %q", renamed.Name)
	}
	if _, err := store.Rename("nope", "x"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestLocalStoreChunkedUpload(t *testing.T) {
	store := newTestStore(t)

	chunks := []string{"first-", "second-", "third"}
	for i, chunk := range chunks {
		if err := store.SaveChunk("upl-1", i, strings.NewReader(chunk)); err != nil {
			t.Fatalf("SaveChunk %d failed: %v", i, err)
		}
	}

	info, err := store.CompleteChunkedUpload("upl-1", "big.pdf", "application/pdf", len(chunks))
	if err != nil {
		t.Fatalf("CompleteChunkedUpload failed: %v", err)
	}

	path, _ := store.GetFilePath(info.ID)
	data, _ := os.ReadFile(path)
	if string(data) != "first-second-third" {
		t.Errorf("assembled content = %q", data)
	}
	if info.Size != int64(len("first-second-third")) {
		t.Errorf("Size = %d", info.Size)
	}
}
