package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"lyricbridge/pkg/music"
)

const (
	defaultBaseURL = "https://music.163.com"
	defaultTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/63.0.3239.132 Safari/537.36"
)

var logger = log.With().Str("component", "netease").Logger()

// Client 网易云音乐客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     music.CookieSupplier
}

// NewClient 创建新的网易云音乐客户端
func NewClient(cookie music.CookieSupplier, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cookie == nil {
		cookie = func() string { return "" }
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cookie:     cookie,
	}
}

// Source 提供商枚举值
func (c *Client) Source() music.Provider {
	return music.ProviderNetEase
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "NetEase Cloud Music"
}

// weapiPost 加密正文并提交 weapi 表单
func (c *Client) weapiPost(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weapi payload: %w", err)
	}

	params, encSecKey, err := encryptWeapi(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt weapi payload: %w", err)
	}

	form := url.Values{}
	form.Set("params", params)
	form.Set("encSecKey", encSecKey)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create weapi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://music.163.com/")

	// 无Cookie时退化为随机NMTID，降级抓取仍然可用
	cookie := strings.TrimSpace(c.cookie())
	if cookie == "" {
		cookie = "NMTID=" + randomKey(10)
	}
	req.Header.Set("Cookie", cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", music.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d on %s", music.ErrProviderRejected, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", music.ErrNetwork, err)
	}
	return body, nil
}

type songJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Ar   []struct {
		Name string `json:"name"`
	} `json:"ar"`
	Al struct {
		Name   string `json:"name"`
		PicURL string `json:"picUrl"`
	} `json:"al"`
	Dt int `json:"dt"` // 时长 (ms)
}

func toSong(raw songJSON) music.Song {
	singers := make([]string, 0, len(raw.Ar))
	for _, ar := range raw.Ar {
		singers = append(singers, ar.Name)
	}
	id := strconv.Itoa(raw.ID)
	return music.Song{
		ID:         id,
		DisplayID:  id,
		Name:       raw.Name,
		Singers:    singers,
		Album:      raw.Al.Name,
		DurationMs: raw.Dt,
		PicURL:     raw.Al.PicURL,
	}
}

// Search 搜索歌曲/专辑/歌单
func (c *Client) Search(ctx context.Context, keyword string, typ music.ResourceType) ([]music.Song, error) {
	typeMap := map[music.ResourceType]string{
		music.ResourceSong:     "1",
		music.ResourceAlbum:    "10",
		music.ResourcePlaylist: "1000",
	}

	body, err := c.weapiPost(ctx, "/weapi/cloudsearch/get/web", map[string]any{
		"csrf_token": "",
		"s":          keyword,
		"type":       typeMap[typ],
		"limit":      "20",
		"offset":     "0",
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Code   int `json:"code"`
		Result struct {
			Songs  []songJSON `json:"songs"`
			Albums []struct {
				ID     int    `json:"id"`
				Name   string `json:"name"`
				Artist struct {
					Name string `json:"name"`
				} `json:"artist"`
				PicURL string `json:"picUrl"`
			} `json:"albums"`
			Playlists []struct {
				ID      int    `json:"id"`
				Name    string `json:"name"`
				Creator struct {
					Nickname string `json:"nickname"`
				} `json:"creator"`
				CoverImgURL string `json:"coverImgUrl"`
			} `json:"playlists"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: bad search response: %v", music.ErrProviderRejected, err)
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("%w: search returned code %d", music.ErrProviderRejected, resp.Code)
	}

	var songs []music.Song
	switch typ {
	case music.ResourceAlbum:
		for _, al := range resp.Result.Albums {
			id := strconv.Itoa(al.ID)
			songs = append(songs, music.Song{
				ID: id, DisplayID: id, Name: al.Name,
				Singers: []string{al.Artist.Name}, Album: al.Name, PicURL: al.PicURL,
			})
		}
	case music.ResourcePlaylist:
		for _, pl := range resp.Result.Playlists {
			id := strconv.Itoa(pl.ID)
			songs = append(songs, music.Song{
				ID: id, DisplayID: id, Name: pl.Name,
				Singers: []string{pl.Creator.Nickname}, PicURL: pl.CoverImgURL,
			})
		}
	default:
		for _, s := range resp.Result.Songs {
			songs = append(songs, toSong(s))
		}
	}

	logger.Info().Str("keyword", keyword).Str("type", string(typ)).Int("count", len(songs)).Msg("Search finished")
	return songs, nil
}

// GetSongs 批量获取歌曲信息
func (c *Client) GetSongs(ctx context.Context, ids []string) ([]music.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	type idEntry struct {
		ID string `json:"id"`
	}
	entries := make([]idEntry, len(ids))
	for i, id := range ids {
		entries[i] = idEntry{ID: id}
	}
	idsJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal song ids: %w", err)
	}

	body, err := c.weapiPost(ctx, "/weapi/v3/song/detail?csrf_token=", map[string]any{
		"c":          string(idsJSON),
		"csrf_token": "",
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Songs []songJSON `json:"songs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: bad song detail response: %v", music.ErrProviderRejected, err)
	}

	songs := make([]music.Song, 0, len(resp.Songs))
	for _, s := range resp.Songs {
		songs = append(songs, toSong(s))
	}
	return songs, nil
}

// GetAlbum 获取专辑名称和曲目
func (c *Client) GetAlbum(ctx context.Context, albumID string) (string, []music.Song, error) {
	body, err := c.weapiPost(ctx, "/weapi/v1/album/"+albumID+"?csrf_token=", map[string]any{
		"csrf_token": "",
	})
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		Album struct {
			Name string `json:"name"`
		} `json:"album"`
		Songs []songJSON `json:"songs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("%w: bad album response: %v", music.ErrProviderRejected, err)
	}

	songs := make([]music.Song, 0, len(resp.Songs))
	for _, s := range resp.Songs {
		songs = append(songs, toSong(s))
	}
	return resp.Album.Name, songs, nil
}

// GetPlaylist 获取歌单名称和曲目
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (string, []music.Song, error) {
	body, err := c.weapiPost(ctx, "/weapi/v6/playlist/detail?csrf_token=", map[string]any{
		"csrf_token": "",
		"id":         playlistID,
		"offset":     "0",
		"total":      "true",
		"limit":      "1000",
		"n":          "1000",
	})
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		Playlist struct {
			Name     string `json:"name"`
			TrackIDs []struct {
				ID int `json:"id"`
			} `json:"trackIds"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("%w: bad playlist response: %v", music.ErrProviderRejected, err)
	}

	ids := make([]string, 0, len(resp.Playlist.TrackIDs))
	for _, t := range resp.Playlist.TrackIDs {
		ids = append(ids, strconv.Itoa(t.ID))
	}
	songs, err := c.GetSongs(ctx, ids)
	if err != nil {
		return "", nil, err
	}
	return resp.Playlist.Name, songs, nil
}

// GetLyric 获取歌词，原文/翻译/罗马音三个变体
func (c *Client) GetLyric(ctx context.Context, id, displayID string) (music.Lyric, error) {
	lyric := music.Lyric{Source: music.ProviderNetEase, Partial: strings.TrimSpace(c.cookie()) == ""}

	body, err := c.weapiPost(ctx, "/weapi/song/lyric?csrf_token=", map[string]any{
		"id":         id,
		"os":         "pc",
		"lv":         "-1",
		"kv":         "-1",
		"tv":         "-1",
		"rv":         "-1",
		"csrf_token": "",
	})
	if err != nil {
		return lyric, err
	}

	var resp struct {
		Code int `json:"code"`
		Lrc  struct {
			Lyric string `json:"lyric"`
		} `json:"lrc"`
		Tlyric struct {
			Lyric string `json:"lyric"`
		} `json:"tlyric"`
		Romalrc struct {
			Lyric string `json:"lyric"`
		} `json:"romalrc"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return lyric, fmt.Errorf("%w: bad lyric response: %v", music.ErrProviderRejected, err)
	}
	if resp.Code != 200 {
		return lyric, fmt.Errorf("%w: lyric returned code %d", music.ErrProviderRejected, resp.Code)
	}

	lyric.Origin = resp.Lrc.Lyric
	lyric.Translation = resp.Tlyric.Lyric
	lyric.Transliteration = resp.Romalrc.Lyric

	if strings.TrimSpace(lyric.Origin) == "" {
		return lyric, fmt.Errorf("%w: song %s", music.ErrNoLyric, id)
	}
	return lyric, nil
}

// GetSongLink 获取歌曲音频链接
func (c *Client) GetSongLink(ctx context.Context, song music.Song) (string, error) {
	body, err := c.weapiPost(ctx, "/weapi/song/enhance/player/url?csrf_token=", map[string]any{
		"ids":        "[" + song.ID + "]",
		"br":         "999000",
		"csrf_token": "",
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Data []struct {
			ID  int    `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: bad player url response: %v", music.ErrProviderRejected, err)
	}

	for _, d := range resp.Data {
		if strconv.Itoa(d.ID) == song.ID && d.URL != "" {
			return d.URL, nil
		}
	}
	return "", fmt.Errorf("%w: no playable url for song %s", music.ErrProviderRejected, song.ID)
}

// GetCoverArt 获取封面图链接
func (c *Client) GetCoverArt(ctx context.Context, song music.Song) (string, error) {
	if song.PicURL != "" {
		return song.PicURL, nil
	}
	songs, err := c.GetSongs(ctx, []string{song.ID})
	if err != nil {
		return "", err
	}
	if len(songs) == 0 || songs[0].PicURL == "" {
		return "", fmt.Errorf("%w: no cover art for song %s", music.ErrProviderRejected, song.ID)
	}
	return songs[0].PicURL, nil
}
