package cache

import (
	"testing"

	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"go.uber.org/zap"
)

func TestKeyFormat(t *testing.T) {
	got := Key(1234567890, 42, 3)
	want := "props:1234567890:42:3"
	if got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
	if Key(1234567890, 42, 3) == Key(1234567890, 42, 4) {
		t.Error("keys for different workers collide")
	}
	if Key(1111, 42, 3) == Key(2222, 42, 3) {
		t.Error("keys for different archives collide")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	InitCache(zap.NewNop())
	defer GetCache().Stop()

	stored := &types.FileIdentity{
		Type:          types.FileTypeVideo,
		MediaID:       111222333,
		AccessHash:    -444,
		FileReference: []byte{0xde, 0xad, 0xbe, 0xef},
		DCID:          4,
		Size:          5_000_000,
		Name:          "movie.mkv",
		MimeType:      "video/x-matroska",
		UniqueID:      "AgADwq0AAhg",
	}
	key := Key(1234567890, 42, 0)
	if err := GetCache().Set(key, stored); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var loaded types.FileIdentity
	if err := GetCache().Get(key, &loaded); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.MediaID != stored.MediaID || loaded.AccessHash != stored.AccessHash {
		t.Errorf("handle mismatch: got %d/%d", loaded.MediaID, loaded.AccessHash)
	}
	if string(loaded.FileReference) != string(stored.FileReference) {
		t.Errorf("FileReference = %x, want %x", loaded.FileReference, stored.FileReference)
	}
	if loaded.Name != stored.Name || loaded.UniqueID != stored.UniqueID {
		t.Errorf("metadata mismatch: %q/%q", loaded.Name, loaded.UniqueID)
	}

	var missing types.FileIdentity
	if err := GetCache().Get(Key(1234567890, 43, 0), &missing); err == nil {
		t.Error("Get on absent key succeeded, want error")
	}
}

func TestFlushDropsEverything(t *testing.T) {
	InitCache(zap.NewNop())
	defer GetCache().Stop()

	key := Key(1234567890, 7, 1)
	if err := GetCache().Set(key, &types.FileIdentity{MediaID: 1}); err != nil {
		t.Fatal(err)
	}
	GetCache().Flush()

	var out types.FileIdentity
	if err := GetCache().Get(key, &out); err == nil {
		t.Error("Get after Flush succeeded, want error")
	}
}
