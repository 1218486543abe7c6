package music

import (
	"context"
)

// Provider 音乐提供商类型
type Provider string

const (
	// ProviderNetEase 网易云音乐
	ProviderNetEase Provider = "netease"
	// ProviderQQMusic QQ音乐
	ProviderQQMusic Provider = "qq"
)

// ResourceType 目录资源类型
type ResourceType string

const (
	ResourceSong     ResourceType = "song"
	ResourceAlbum    ResourceType = "album"
	ResourcePlaylist ResourceType = "playlist"
)

// SongReference 一次解析得到的目录资源引用
type SongReference struct {
	Provider Provider     `json:"provider"`
	Type     ResourceType `json:"type"`
	ID       string       `json:"id"`
}

// Song 提供商无关的歌曲信息。构造后不再修改。
type Song struct {
	ID         string   `json:"id"`
	DisplayID  string   `json:"display_id"` // QQ区分数字id和mid，网易云两者相同
	Name       string   `json:"name"`
	Singers    []string `json:"singers"`
	Album      string   `json:"album,omitempty"`
	DurationMs int      `json:"duration_ms"`
	PicURL     string   `json:"pic_url,omitempty"`
}

// Lyric 提供商返回的原始歌词，三个变体均为LRC或纯文本
type Lyric struct {
	Origin          string   `json:"origin"`
	Translation     string   `json:"translation,omitempty"`
	Transliteration string   `json:"transliteration,omitempty"`
	Source          Provider `json:"source"`
	// Partial 表示未配置Cookie时的降级抓取结果
	Partial bool `json:"partial,omitempty"`
}

// MusicAPI 音乐API通用接口。每个提供商的HTTP调用和响应结构
// 只存在于各自的实现包内，输出一律是规范化的 Song/Lyric。
type MusicAPI interface {
	// Search 按关键词搜索歌曲/专辑/歌单
	Search(ctx context.Context, keyword string, typ ResourceType) ([]Song, error)

	// GetSongs 批量获取歌曲信息
	GetSongs(ctx context.Context, ids []string) ([]Song, error)

	// GetAlbum 获取专辑名称和曲目
	GetAlbum(ctx context.Context, albumID string) (string, []Song, error)

	// GetPlaylist 获取歌单名称和曲目
	GetPlaylist(ctx context.Context, playlistID string) (string, []Song, error)

	// GetLyric 获取歌词。displayID 供区分 id/mid 的提供商使用
	GetLyric(ctx context.Context, id, displayID string) (Lyric, error)

	// GetSongLink 获取歌曲音频链接
	GetSongLink(ctx context.Context, song Song) (string, error)

	// GetCoverArt 获取封面图链接
	GetCoverArt(ctx context.Context, song Song) (string, error)

	// Source 提供商枚举值
	Source() Provider

	// GetProviderName 获取音乐提供商名称
	GetProviderName() string
}
