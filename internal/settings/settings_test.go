package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("文件不存在应返回零值: %v", err)
	}
	if got.BackendURL != "" || len(got.Credentials) != 0 {
		t.Errorf("unexpected settings: %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Settings{
		BackendURL:        "http://127.0.0.1:27232",
		Credentials:       map[string]string{"netease_cookie": "MUSIC_U=abc"},
		LastSaveDirectory: "/tmp/lyrics",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BackendURL != want.BackendURL || got.LastSaveDirectory != want.LastSaveDirectory {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Credentials["netease_cookie"] != "MUSIC_U=abc" {
		t.Errorf("credentials lost: %v", got.Credentials)
	}

	// 落盘后目录里没有残留的临时文件
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{broken"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// 损坏文件按空设置处理，不阻塞启动
	got, err := store.Load()
	if err != nil {
		t.Fatalf("corrupt file should not fail load: %v", err)
	}
	if got.BackendURL != "" {
		t.Errorf("unexpected settings: %+v", got)
	}
}

func TestUpdate(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Update(func(s *Settings) {
		s.Credentials["qq_cookie"] = "uin=123"
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.Update(func(s *Settings) {
		s.LastSaveDirectory = "/music"
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// 两次更新互不覆盖
	if got.Credentials["qq_cookie"] != "uin=123" || got.LastSaveDirectory != "/music" {
		t.Errorf("updates lost: %+v", got)
	}
}
