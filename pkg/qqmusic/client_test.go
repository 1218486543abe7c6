package qqmusic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lyricbridge/pkg/music"
)

func testClient(serverURL string, cookie string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 2 * time.Second},
		cBaseURL:      serverURL,
		musicuBaseURL: serverURL,
		cookie:        func() string { return cookie },
	}
}

func TestSearchSongs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/musicu.fcg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"req_1":{"data":{"body":{"song":{"list":[
			{"id":213756852,"mid":"002WLDmw0vkHtC","title":"Test Song","interval":254,
			 "singer":[{"name":"Singer A"}],"album":{"name":"Test Album","pmid":"003abc"}}
		]}}}}}`))
	}))
	defer server.Close()

	client := testClient(server.URL, "")
	songs, err := client.Search(context.Background(), "test", music.ResourceSong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("预期1首歌，实际%d", len(songs))
	}
	song := songs[0]
	// 数字id和mid分开保存
	if song.ID != "213756852" || song.DisplayID != "002WLDmw0vkHtC" {
		t.Errorf("unexpected ids: %+v", song)
	}
	if song.DurationMs != 254000 {
		t.Errorf("interval应换算成毫秒，实际%d", song.DurationMs)
	}
	if song.PicURL == "" {
		t.Error("pmid应产出封面链接")
	}
}

func TestGetSongJSONP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/fcg-bin/fcg_play_single_song.fcg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		// 字母数字混合的id按songmid提交
		if r.PostForm.Get("songmid") != "002WLDmw0vkHtC" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		fmt.Fprint(w, `getOneSongInfoCallback({"code":0,"data":[
			{"id":213756852,"mid":"002WLDmw0vkHtC","name":"Song","interval":200,
			 "singer":[{"name":"S"}],"album":{"name":"Al","pmid":""}}
		]})`)
	}))
	defer server.Close()

	client := testClient(server.URL, "")
	song, err := client.getSong(context.Background(), "002WLDmw0vkHtC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if song.ID != "213756852" || song.Name != "Song" {
		t.Errorf("unexpected song: %+v", song)
	}
}

func TestGetSongNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `getOneSongInfoCallback({"code":0,"data":[]})`)
	}))
	defer server.Close()

	client := testClient(server.URL, "")
	_, err := client.getSong(context.Background(), "404")
	if !errors.Is(err, music.ErrProviderRejected) {
		t.Fatalf("预期ErrProviderRejected，实际%v", err)
	}
}

func TestGetAlbum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/fcg-bin/fcg_v8_album_info_cp.fcg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"name":"My Album","list":[
			{"songid":1,"songmid":"mid1","songname":"One","singer":[{"name":"A"}]},
			{"songid":2,"songmid":"mid2","songname":"Two","singer":[{"name":"B"}]}
		]}}`))
	}))
	defer server.Close()

	client := testClient(server.URL, "")
	name, songs, err := client.GetAlbum(context.Background(), "000MkMni19ClKG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "My Album" {
		t.Errorf("unexpected name: %q", name)
	}
	if len(songs) != 2 || songs[0].DisplayID != "mid1" || songs[1].Album != "My Album" {
		t.Errorf("unexpected songs: %+v", songs)
	}
}

func TestGetLyricDownload(t *testing.T) {
	origin := encryptFixture(t, "[00:01.00]第一行\n[00:02.00]第二行")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qqmusic/fcgi-bin/lyric_download.fcg" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("musicid") != "213756852" || r.PostForm.Get("lrctype") != "4" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		// 响应包在HTML注释里
		fmt.Fprintf(w, `<!--<?xml version="1.0" encoding="utf-8"?>
<miniommusic><song><content><![CDATA[%s]]></content></song></miniommusic>-->`, origin)
	}))
	defer server.Close()

	client := testClient(server.URL, "qqmusic_key=abc")
	lyric, err := client.GetLyric(context.Background(), "213756852", "002WLDmw0vkHtC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lyric.Origin != "[00:01.00]第一行\n[00:02.00]第二行" {
		t.Errorf("unexpected origin: %q", lyric.Origin)
	}
	if lyric.Source != music.ProviderQQMusic {
		t.Errorf("unexpected source: %s", lyric.Source)
	}
	if lyric.Partial {
		t.Error("有Cookie时不应标记Partial")
	}
}

func TestGetLyricEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!--<?xml version="1.0"?><miniommusic><song></song></miniommusic>-->`)
	}))
	defer server.Close()

	client := testClient(server.URL, "")
	_, err := client.GetLyric(context.Background(), "213756852", "")
	if !errors.Is(err, music.ErrNoLyric) {
		t.Fatalf("预期ErrNoLyric，实际%v", err)
	}
}

func TestStripJSONP(t *testing.T) {
	payload, ok := stripJSONP(`getOneSongInfoCallback({"code":0})`, "getOneSongInfoCallback")
	if !ok || payload != `{"code":0}` {
		t.Errorf("unexpected payload: %q ok=%v", payload, ok)
	}
	if _, ok := stripJSONP(`otherCallback({})`, "getOneSongInfoCallback"); ok {
		t.Error("不同callback不应匹配")
	}
}

func TestIsDigits(t *testing.T) {
	if !isDigits("12345") || isDigits("12a45") || isDigits("") {
		t.Error("isDigits misbehaves")
	}
}
