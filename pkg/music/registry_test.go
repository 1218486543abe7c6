package music

import (
	"context"
	"testing"
)

// mockProvider 模拟音乐提供商
type mockProvider struct {
	provider Provider
}

func (m *mockProvider) Search(ctx context.Context, keyword string, typ ResourceType) ([]Song, error) {
	return nil, nil
}
func (m *mockProvider) GetSongs(ctx context.Context, ids []string) ([]Song, error) { return nil, nil }
func (m *mockProvider) GetAlbum(ctx context.Context, id string) (string, []Song, error) {
	return "", nil, nil
}
func (m *mockProvider) GetPlaylist(ctx context.Context, id string) (string, []Song, error) {
	return "", nil, nil
}
func (m *mockProvider) GetLyric(ctx context.Context, id, displayID string) (Lyric, error) {
	return Lyric{}, nil
}
func (m *mockProvider) GetSongLink(ctx context.Context, song Song) (string, error)  { return "", nil }
func (m *mockProvider) GetCoverArt(ctx context.Context, song Song) (string, error) { return "", nil }
func (m *mockProvider) Source() Provider                                           { return m.provider }
func (m *mockProvider) GetProviderName() string                                    { return string(m.provider) }

func TestRegistry(t *testing.T) {
	netease := &mockProvider{provider: ProviderNetEase}
	registry := NewRegistry(map[Provider]MusicAPI{ProviderNetEase: netease})

	got, err := registry.Get(ProviderNetEase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != netease {
		t.Error("registry returned wrong client")
	}

	if _, err := registry.Get(ProviderQQMusic); err == nil {
		t.Error("未登记的提供商应报错")
	}

	if len(registry.All()) != 1 || len(registry.Providers()) != 1 {
		t.Error("unexpected registry contents")
	}
}

func TestGetProviderByName(t *testing.T) {
	cases := map[string]Provider{
		"netease": ProviderNetEase,
		"163":     ProviderNetEase,
		"网易云":     ProviderNetEase,
		"qq":      ProviderQQMusic,
		"qqmusic": ProviderQQMusic,
		"腾讯":      ProviderQQMusic,
	}
	for name, want := range cases {
		got, err := GetProviderByName(name)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %s, want %s", name, got, want)
		}
	}

	if _, err := GetProviderByName("spotify"); err == nil {
		t.Error("未知名称应报错")
	}
}

func TestParseResourceType(t *testing.T) {
	// 空串默认song
	if got, err := ParseResourceType(""); err != nil || got != ResourceSong {
		t.Errorf("got %s, %v", got, err)
	}
	if got, err := ParseResourceType("playlist"); err != nil || got != ResourcePlaylist {
		t.Errorf("got %s, %v", got, err)
	}
	if _, err := ParseResourceType("video"); err == nil {
		t.Error("未知类型应报错")
	}
}
