package music

import (
	"fmt"
)

// CookieSupplier 返回某个提供商当前配置的会话Cookie，可能为空
type CookieSupplier func() string

// Registry 固定封闭的提供商集合。新增目录源通过新增实现包
// 并在装配处登记，而不是在下游做形状分支。
type Registry struct {
	providers map[Provider]MusicAPI
}

// NewRegistry 创建提供商注册表
func NewRegistry(providers map[Provider]MusicAPI) *Registry {
	return &Registry{providers: providers}
}

// Get 按枚举取提供商客户端
func (r *Registry) Get(p Provider) (MusicAPI, error) {
	api, ok := r.providers[p]
	if !ok {
		return nil, fmt.Errorf("unknown music provider: %s", p)
	}
	return api, nil
}

// All 返回全部客户端，遍历顺序不保证
func (r *Registry) All() []MusicAPI {
	out := make([]MusicAPI, 0, len(r.providers))
	for _, api := range r.providers {
		out = append(out, api)
	}
	return out
}

// Providers 返回登记过的提供商枚举
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	return out
}

// GetProviderByName 根据名称获取提供商
func GetProviderByName(name string) (Provider, error) {
	switch name {
	case "netease", "网易云", "163":
		return ProviderNetEase, nil
	case "qqmusic", "qq", "腾讯":
		return ProviderQQMusic, nil
	default:
		return "", fmt.Errorf("unknown provider name: %s", name)
	}
}

// ParseResourceType 解析资源类型名称
func ParseResourceType(name string) (ResourceType, error) {
	switch name {
	case "song", "":
		return ResourceSong, nil
	case "album":
		return ResourceAlbum, nil
	case "playlist":
		return ResourcePlaylist, nil
	default:
		return "", fmt.Errorf("unknown resource type: %s", name)
	}
}
