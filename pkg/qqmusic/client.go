package qqmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"lyricbridge/pkg/music"
)

const (
	defaultCBaseURL      = "https://c.y.qq.com"
	defaultMusicuBaseURL = "https://u.y.qq.com"
	defaultTimeout       = 10 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/63.0.3239.132 Safari/537.36"

	songDetailCallback = "getOneSongInfoCallback"
)

var logger = log.With().Str("component", "qqmusic").Logger()

// Client QQ音乐客户端
type Client struct {
	httpClient    *http.Client
	cBaseURL      string
	musicuBaseURL string
	cookie        music.CookieSupplier
}

// NewClient 创建新的QQ音乐客户端
func NewClient(cookie music.CookieSupplier, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cookie == nil {
		cookie = func() string { return "" }
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		cBaseURL:      defaultCBaseURL,
		musicuBaseURL: defaultMusicuBaseURL,
		cookie:        cookie,
	}
}

// Source 提供商枚举值
func (c *Client) Source() music.Provider {
	return music.ProviderQQMusic
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "QQ Music"
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://c.y.qq.com/")
	if cookie := strings.TrimSpace(c.cookie()); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", music.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d on %s", music.ErrProviderRejected, resp.StatusCode, req.URL.Path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", music.ErrNetwork, err)
	}
	return body, nil
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

type singerJSON struct {
	Name string `json:"name"`
}

func singerNames(singers []singerJSON) []string {
	names := make([]string, 0, len(singers))
	for _, s := range singers {
		names = append(names, s.Name)
	}
	return names
}

func coverURL(albumPMID string) string {
	if albumPMID == "" {
		return ""
	}
	return "https://y.qq.com/music/photo_new/T002R800x800M000" + albumPMID + ".jpg"
}

// Search 搜索歌曲/专辑/歌单
func (c *Client) Search(ctx context.Context, keyword string, typ music.ResourceType) ([]music.Song, error) {
	typeMap := map[music.ResourceType]int{
		music.ResourceSong:     0,
		music.ResourceAlbum:    2,
		music.ResourcePlaylist: 3,
	}

	payload := map[string]any{
		"req_1": map[string]any{
			"method": "DoSearchForQQMusicDesktop",
			"module": "music.search.SearchCgiService",
			"param": map[string]any{
				"num_per_page": "20",
				"page_num":     "1",
				"query":        keyword,
				"search_type":  typeMap[typ],
			},
		},
	}
	body, err := c.postJSON(ctx, c.musicuBaseURL+"/cgi-bin/musicu.fcg", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Req1 struct {
			Data struct {
				Body struct {
					Song struct {
						List []struct {
							ID       int          `json:"id"`
							Mid      string       `json:"mid"`
							Title    string       `json:"title"`
							Name     string       `json:"name"`
							Interval int          `json:"interval"`
							Singer   []singerJSON `json:"singer"`
							Album    struct {
								Name string `json:"name"`
								Pmid string `json:"pmid"`
							} `json:"album"`
						} `json:"list"`
					} `json:"song"`
					Album struct {
						List []struct {
							AlbumMID   string       `json:"albumMID"`
							AlbumID    int          `json:"albumID"`
							AlbumName  string       `json:"albumName"`
							SingerList []singerJSON `json:"singer_list"`
						} `json:"list"`
					} `json:"album"`
					Songlist struct {
						List []struct {
							Dissid   string `json:"dissid"`
							Dissname string `json:"dissname"`
							Creator  struct {
								Name string `json:"name"`
							} `json:"creator"`
						} `json:"list"`
					} `json:"songlist"`
				} `json:"body"`
			} `json:"data"`
		} `json:"req_1"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: bad search response: %v", music.ErrProviderRejected, err)
	}

	var songs []music.Song
	switch typ {
	case music.ResourceAlbum:
		for _, al := range resp.Req1.Data.Body.Album.List {
			id := al.AlbumMID
			if id == "" && al.AlbumID != 0 {
				id = strconv.Itoa(al.AlbumID)
			}
			songs = append(songs, music.Song{
				ID: id, DisplayID: id, Name: al.AlbumName,
				Singers: singerNames(al.SingerList), Album: al.AlbumName,
			})
		}
	case music.ResourcePlaylist:
		for _, pl := range resp.Req1.Data.Body.Songlist.List {
			songs = append(songs, music.Song{
				ID: pl.Dissid, DisplayID: pl.Dissid, Name: pl.Dissname,
				Singers: []string{pl.Creator.Name},
			})
		}
	default:
		for _, s := range resp.Req1.Data.Body.Song.List {
			name := s.Title
			if name == "" {
				name = s.Name
			}
			songs = append(songs, music.Song{
				ID:         strconv.Itoa(s.ID),
				DisplayID:  s.Mid,
				Name:       name,
				Singers:    singerNames(s.Singer),
				Album:      s.Album.Name,
				DurationMs: s.Interval * 1000,
				PicURL:     coverURL(s.Album.Pmid),
			})
		}
	}

	logger.Info().Str("keyword", keyword).Str("type", string(typ)).Int("count", len(songs)).Msg("Search finished")
	return songs, nil
}

// stripJSONP 剥掉 callback(...) 包装
func stripJSONP(raw, callback string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, callback) {
		return "", false
	}
	payload := strings.TrimPrefix(raw, callback)
	payload = strings.TrimPrefix(payload, "(")
	payload = strings.TrimSuffix(payload, ")")
	return payload, true
}

// GetSongs 批量获取歌曲信息，单曲接口逐个请求
func (c *Client) GetSongs(ctx context.Context, ids []string) ([]music.Song, error) {
	songs := make([]music.Song, 0, len(ids))
	for _, id := range ids {
		song, err := c.getSong(ctx, id)
		if err != nil {
			return songs, err
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func (c *Client) getSong(ctx context.Context, id string) (music.Song, error) {
	form := url.Values{}
	idField := "songmid"
	if isDigits(id) {
		idField = "songid"
	}
	form.Set(idField, id)
	form.Set("tpl", "yqq_song_detail")
	form.Set("format", "jsonp")
	form.Set("callback", songDetailCallback)
	form.Set("jsonpCallback", songDetailCallback)
	form.Set("g_tk", "5381")
	form.Set("loginUin", "0")
	form.Set("hostUin", "0")
	form.Set("outCharset", "utf8")
	form.Set("notice", "0")
	form.Set("platform", "yqq")
	form.Set("needNewCode", "0")

	body, err := c.postForm(ctx, c.cBaseURL+"/v8/fcg-bin/fcg_play_single_song.fcg", form)
	if err != nil {
		return music.Song{}, err
	}

	payload, ok := stripJSONP(string(body), songDetailCallback)
	if !ok {
		return music.Song{}, fmt.Errorf("%w: unexpected song detail response", music.ErrProviderRejected)
	}

	var resp struct {
		Code int `json:"code"`
		Data []struct {
			ID       int          `json:"id"`
			Mid      string       `json:"mid"`
			Name     string       `json:"name"`
			Title    string       `json:"title"`
			Interval int          `json:"interval"`
			Singer   []singerJSON `json:"singer"`
			Album    struct {
				Name string `json:"name"`
				Pmid string `json:"pmid"`
			} `json:"album"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return music.Song{}, fmt.Errorf("%w: bad song detail response: %v", music.ErrProviderRejected, err)
	}
	if resp.Code != 0 || len(resp.Data) == 0 {
		return music.Song{}, fmt.Errorf("%w: song %s not found", music.ErrProviderRejected, id)
	}

	s := resp.Data[0]
	name := s.Name
	if name == "" {
		name = s.Title
	}
	displayID := s.Mid
	if displayID == "" {
		displayID = strconv.Itoa(s.ID)
	}
	return music.Song{
		ID:         strconv.Itoa(s.ID),
		DisplayID:  displayID,
		Name:       name,
		Singers:    singerNames(s.Singer),
		Album:      s.Album.Name,
		DurationMs: s.Interval * 1000,
		PicURL:     coverURL(s.Album.Pmid),
	}, nil
}

// GetAlbum 获取专辑名称和曲目
func (c *Client) GetAlbum(ctx context.Context, albumID string) (string, []music.Song, error) {
	form := url.Values{}
	if isDigits(albumID) {
		form.Set("albumid", albumID)
	} else {
		form.Set("albummid", albumID)
	}

	body, err := c.postForm(ctx, c.cBaseURL+"/v8/fcg-bin/fcg_v8_album_info_cp.fcg", form)
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		Data struct {
			Name string `json:"name"`
			List []struct {
				SongID   int          `json:"songid"`
				SongMID  string       `json:"songmid"`
				SongName string       `json:"songname"`
				Singer   []singerJSON `json:"singer"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("%w: bad album response: %v", music.ErrProviderRejected, err)
	}

	songs := make([]music.Song, 0, len(resp.Data.List))
	for _, s := range resp.Data.List {
		songs = append(songs, music.Song{
			ID:        strconv.Itoa(s.SongID),
			DisplayID: s.SongMID,
			Name:      s.SongName,
			Singers:   singerNames(s.Singer),
			Album:     resp.Data.Name,
		})
	}
	return resp.Data.Name, songs, nil
}

// GetPlaylist 获取歌单名称和曲目
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (string, []music.Song, error) {
	form := url.Values{}
	form.Set("disstid", playlistID)
	form.Set("format", "json")
	form.Set("outCharset", "utf8")
	form.Set("type", "1")
	form.Set("json", "1")
	form.Set("utf8", "1")
	form.Set("onlysong", "0")
	form.Set("new_format", "1")

	body, err := c.postForm(ctx, c.cBaseURL+"/qzone/fcg-bin/fcg_ucc_getcdinfo_byids_cp.fcg", form)
	if err != nil {
		return "", nil, err
	}

	var resp struct {
		Cdlist []struct {
			Dissname string `json:"dissname"`
			Songlist []struct {
				ID       int          `json:"id"`
				Mid      string       `json:"mid"`
				Name     string       `json:"name"`
				Interval int          `json:"interval"`
				Singer   []singerJSON `json:"singer"`
				Album    struct {
					Name string `json:"name"`
					Pmid string `json:"pmid"`
				} `json:"album"`
			} `json:"songlist"`
		} `json:"cdlist"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", nil, fmt.Errorf("%w: bad playlist response: %v", music.ErrProviderRejected, err)
	}
	if len(resp.Cdlist) == 0 {
		return "", nil, fmt.Errorf("%w: playlist %s not found", music.ErrProviderRejected, playlistID)
	}

	pl := resp.Cdlist[0]
	songs := make([]music.Song, 0, len(pl.Songlist))
	for _, s := range pl.Songlist {
		songs = append(songs, music.Song{
			ID:         strconv.Itoa(s.ID),
			DisplayID:  s.Mid,
			Name:       s.Name,
			Singers:    singerNames(s.Singer),
			Album:      s.Album.Name,
			DurationMs: s.Interval * 1000,
			PicURL:     coverURL(s.Album.Pmid),
		})
	}
	return pl.Dissname, songs, nil
}

// GetLyric 获取歌词。lyric_download 通道需要数字 musicid。
func (c *Client) GetLyric(ctx context.Context, id, displayID string) (music.Lyric, error) {
	lyric := music.Lyric{Source: music.ProviderQQMusic, Partial: strings.TrimSpace(c.cookie()) == ""}

	musicID := id
	if !isDigits(musicID) {
		// 传入的是mid，需要先换取数字id
		song, err := c.getSong(ctx, id)
		if err != nil {
			return lyric, err
		}
		musicID = song.ID
	}

	form := url.Values{}
	form.Set("version", "15")
	form.Set("miniversion", "82")
	form.Set("lrctype", "4")
	form.Set("musicid", musicID)

	body, err := c.postForm(ctx, c.cBaseURL+"/qqmusic/fcgi-bin/lyric_download.fcg", form)
	if err != nil {
		return lyric, err
	}

	raw := strings.NewReplacer("<!--", "", "-->", "").Replace(string(body))
	textMap := parseLyricXML(raw)

	lyric.Origin = textMap["origin"]
	lyric.Translation = textMap["translation"]
	lyric.Transliteration = textMap["transliteration"]
	if lyric.Origin == "" {
		lyric.Origin = textMap["fallback"]
	}

	if strings.TrimSpace(lyric.Origin) == "" {
		return lyric, fmt.Errorf("%w: song %s", music.ErrNoLyric, id)
	}
	return lyric, nil
}

// GetSongLink 获取歌曲音频链接，songmid 走 vkey 通道
func (c *Client) GetSongLink(ctx context.Context, song music.Song) (string, error) {
	payload := map[string]any{
		"req": map[string]any{
			"method": "GetCdnDispatch",
			"module": "CDN.SrfCdnDispatchServer",
			"param":  map[string]any{"guid": randGUID(10), "calltype": "0", "userip": ""},
		},
		"req_0": map[string]any{
			"method": "CgiGetVkey",
			"module": "vkey.GetVkeyServer",
			"param": map[string]any{
				"guid":      "8348972662",
				"songmid":   []string{song.DisplayID},
				"songtype":  []int{1},
				"uin":       "0",
				"loginflag": 1,
				"platform":  "20",
			},
		},
		"comm": map[string]any{"uin": 0, "format": "json", "ct": 24, "cv": 0},
	}

	body, err := c.postJSON(ctx, c.musicuBaseURL+"/cgi-bin/musicu.fcg", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Req struct {
			Data struct {
				Sip []string `json:"sip"`
			} `json:"data"`
		} `json:"req"`
		Req0 struct {
			Data struct {
				Midurlinfo []struct {
					Purl string `json:"purl"`
				} `json:"midurlinfo"`
			} `json:"data"`
		} `json:"req_0"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: bad vkey response: %v", music.ErrProviderRejected, err)
	}

	sip := resp.Req.Data.Sip
	mid := resp.Req0.Data.Midurlinfo
	if len(sip) == 0 || len(mid) == 0 || mid[0].Purl == "" {
		return "", fmt.Errorf("%w: no playable url for song %s", music.ErrProviderRejected, song.DisplayID)
	}
	return sip[0] + mid[0].Purl, nil
}

// GetCoverArt 获取封面图链接
func (c *Client) GetCoverArt(ctx context.Context, song music.Song) (string, error) {
	if song.PicURL != "" {
		return song.PicURL, nil
	}
	fetched, err := c.getSong(ctx, song.ID)
	if err != nil {
		return "", err
	}
	if fetched.PicURL == "" {
		return "", fmt.Errorf("%w: no cover art for song %s", music.ErrProviderRejected, song.ID)
	}
	return fetched.PicURL, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func randGUID(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
