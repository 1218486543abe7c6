// Package resolve 把用户输入的链接或裸ID解析成目录资源引用。
// 纯函数，无I/O。
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"lyricbridge/pkg/music"
)

var (
	// ErrUnrecognizedSource 链接域名不属于任何已知目录源
	ErrUnrecognizedSource = errors.New("unrecognized catalog source")
	// ErrMalformedReference 域名匹配但链接形状不符合已知模式
	ErrMalformedReference = errors.New("malformed catalog reference")
)

// 链接形状按顺序尝试，share页形式放在标准形式之后
type urlPattern struct {
	re  *regexp.Regexp
	typ music.ResourceType
}

var neteasePatterns = []urlPattern{
	{regexp.MustCompile(`song\?id=(\d+)`), music.ResourceSong},
	{regexp.MustCompile(`album\?id=(\d+)`), music.ResourceAlbum},
	{regexp.MustCompile(`playlist\?id=(\d+)`), music.ResourcePlaylist},
}

var qqPatterns = []urlPattern{
	{regexp.MustCompile(`songDetail/([A-Za-z0-9]+)`), music.ResourceSong},
	{regexp.MustCompile(`albumDetail/([A-Za-z0-9]+)`), music.ResourceAlbum},
	{regexp.MustCompile(`playlist/(\d+)`), music.ResourcePlaylist},
	{regexp.MustCompile(`playsong\.html\?.*?songmid=([A-Za-z0-9]+)`), music.ResourceSong},
	{regexp.MustCompile(`playsong\.html\?.*?songid=(\d+)`), music.ResourceSong},
	{regexp.MustCompile(`album\.html\?.*?albummid=([A-Za-z0-9]+)`), music.ResourceAlbum},
	{regexp.MustCompile(`album\.html\?.*?albumId=([A-Za-z0-9]+)`), music.ResourceAlbum},
	{regexp.MustCompile(`taoge\.html\?id=(\d+)`), music.ResourcePlaylist},
}

var hostTable = map[string]music.Provider{
	"music.163.com": music.ProviderNetEase,
	"y.qq.com":      music.ProviderQQMusic,
	"i.y.qq.com":    music.ProviderQQMusic,
	"c.y.qq.com":    music.ProviderQQMusic,
}

var (
	digitsRE = regexp.MustCompile(`^\d+$`)
	alnumRE  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	splitRE  = regexp.MustCompile(`[\s,;]+`)
)

// Resolve 解析一个绝对URL为资源引用
func Resolve(input string) (music.SongReference, error) {
	input = strings.TrimSpace(input)

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return music.SongReference{}, fmt.Errorf("%w: not an absolute http(s) url: %q", ErrUnrecognizedSource, input)
	}

	provider, ok := hostTable[u.Host]
	if !ok {
		return music.SongReference{}, fmt.Errorf("%w: host %q", ErrUnrecognizedSource, u.Host)
	}

	// 网易云把路径放在fragment里(/#/song?id=)，统一在整串上匹配
	patterns := neteasePatterns
	if provider == music.ProviderQQMusic {
		patterns = qqPatterns
	}
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(input); m != nil {
			return music.SongReference{Provider: provider, Type: p.typ, ID: m[1]}, nil
		}
	}

	return music.SongReference{}, fmt.Errorf("%w: no known %s url shape in %q", ErrMalformedReference, provider, input)
}

// ResolveToken 扩展模式：链接之外还接受裸目录ID。
// 纯数字默认当作网易云歌曲ID，字母数字混合当作QQ songmid。
func ResolveToken(token string, defaultProvider music.Provider, defaultType music.ResourceType) (music.SongReference, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return music.SongReference{}, fmt.Errorf("%w: empty input", ErrMalformedReference)
	}

	if strings.Contains(token, "://") {
		return Resolve(token)
	}

	if defaultType == "" {
		defaultType = music.ResourceSong
	}

	if digitsRE.MatchString(token) {
		provider := defaultProvider
		if provider == "" {
			provider = music.ProviderNetEase
		}
		return music.SongReference{Provider: provider, Type: defaultType, ID: token}, nil
	}

	if alnumRE.MatchString(token) {
		// 带字母的ID只有QQ的mid是合法形状
		if defaultProvider != "" && defaultProvider != music.ProviderQQMusic {
			return music.SongReference{}, fmt.Errorf("%w: %q is not a valid %s id", ErrMalformedReference, token, defaultProvider)
		}
		return music.SongReference{Provider: music.ProviderQQMusic, Type: defaultType, ID: token}, nil
	}

	return music.SongReference{}, fmt.Errorf("%w: %q", ErrMalformedReference, token)
}

// SplitInput 把批量输入按空白/逗号/分号切分成token
func SplitInput(raw string) []string {
	var tokens []string
	for _, tok := range splitRE.Split(strings.TrimSpace(raw), -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
