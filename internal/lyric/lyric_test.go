package lyric

import (
	"errors"
	"testing"

	"lyricbridge/pkg/music"
)

func TestParseLRCBasic(t *testing.T) {
	lines := ParseLRC("[00:01.50]第一行\n[00:03]第二行\n")
	if len(lines) != 2 {
		t.Fatalf("预期2行，实际%d", len(lines))
	}
	if lines[0].TimestampMs != 1500 {
		t.Errorf("预期1500ms，实际%d", lines[0].TimestampMs)
	}
	if lines[1].TimestampMs != 3000 {
		t.Errorf("预期3000ms，实际%d", lines[1].TimestampMs)
	}
	if lines[0].Text != "第一行" {
		t.Errorf("unexpected text: %q", lines[0].Text)
	}
}

func TestParseLRCFractionPadding(t *testing.T) {
	// 小数位不足三位按右补零: .1 -> 100ms, .49 -> 490ms
	cases := map[string]int{
		"[00:01.1]a":   1100,
		"[00:01.49]a":  1490,
		"[00:01.493]a": 1493,
		"[00:01]a":     1000,
	}
	for input, want := range cases {
		lines := ParseLRC(input)
		if len(lines) != 1 {
			t.Fatalf("%q: 预期1行，实际%d", input, len(lines))
		}
		if lines[0].TimestampMs != want {
			t.Errorf("%q: 预期%dms，实际%d", input, want, lines[0].TimestampMs)
		}
	}
}

func TestParseLRCMultiTag(t *testing.T) {
	// 一行多个时间标签按标签各发一行
	lines := ParseLRC("[00:10.00][01:10.00]副歌")
	if len(lines) != 2 {
		t.Fatalf("预期2行，实际%d", len(lines))
	}
	if lines[0].TimestampMs != 10000 || lines[1].TimestampMs != 70000 {
		t.Errorf("unexpected timestamps: %d, %d", lines[0].TimestampMs, lines[1].TimestampMs)
	}
	if lines[0].Text != "副歌" || lines[1].Text != "副歌" {
		t.Errorf("repeat lines should share text")
	}
}

func TestParseLRCUntimedAttach(t *testing.T) {
	// 没有标签的行挂到前一个时间戳，没有前驱则丢弃
	lines := ParseLRC("抬头文本\n[00:05.00]有标签\n续行")
	if len(lines) != 2 {
		t.Fatalf("预期2行，实际%d", len(lines))
	}
	if lines[1].Text != "续行" || lines[1].TimestampMs != 5000 {
		t.Errorf("continuation line not attached: %+v", lines[1])
	}
}

func TestParseLRCSortStable(t *testing.T) {
	// 乱序输入排序后升序，相同时间戳保持输入顺序（对唱）
	lines := ParseLRC("[00:10.00]晚\n[00:02.00]甲\n[00:02.00]乙")
	if len(lines) != 3 {
		t.Fatalf("预期3行，实际%d", len(lines))
	}
	if lines[0].Text != "甲" || lines[1].Text != "乙" || lines[2].Text != "晚" {
		t.Errorf("unexpected order: %+v", lines)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].TimestampMs < lines[i-1].TimestampMs {
			t.Errorf("timestamps not monotonic at %d", i)
		}
	}
}

func TestNormalizeEmptyOrigin(t *testing.T) {
	_, err := Normalize(music.Lyric{Origin: "  \n "})
	if !errors.Is(err, music.ErrNoLyric) {
		t.Fatalf("预期ErrNoLyric，实际%v", err)
	}
}

func TestNormalizeFallback(t *testing.T) {
	// 纯文本歌词没有时间戳语法，保留为fallback
	track, err := Normalize(music.Lyric{Origin: "纯文本歌词\n第二行", Source: music.ProviderQQMusic})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(track.Origin) != 0 {
		t.Errorf("预期无时间戳行，实际%d行", len(track.Origin))
	}
	if track.Fallback != "纯文本歌词\n第二行" {
		t.Errorf("unexpected fallback: %q", track.Fallback)
	}
}

func TestNormalizeAlignsVariantsByOrdinal(t *testing.T) {
	raw := music.Lyric{
		Origin: "[00:01.00]line one\n[00:02.00]line two\n[00:03.00]line three",
		// 翻译行时间戳和原文不一致，按行序号对齐
		Translation: "[00:00.90]译一\n[00:02.10]译二\n[00:03.00]译三",
		Source:      music.ProviderNetEase,
	}
	track, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(track.Translation) != 3 {
		t.Fatalf("预期3行翻译，实际%d", len(track.Translation))
	}
	for i := range track.Translation {
		if track.Translation[i].TimestampMs != track.Origin[i].TimestampMs {
			t.Errorf("translation line %d not re-timed to origin: %d vs %d",
				i, track.Translation[i].TimestampMs, track.Origin[i].TimestampMs)
		}
	}
	if track.Translation[1].Text != "译二" {
		t.Errorf("unexpected translation text: %q", track.Translation[1].Text)
	}
}

func TestNormalizeVariantLongerThanOrigin(t *testing.T) {
	raw := music.Lyric{
		Origin:      "[00:01.00]one",
		Translation: "[00:01.00]译一\n[00:02.00]多余",
	}
	track, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(track.Translation) != 1 {
		t.Errorf("超出原文的变体行应丢弃，实际%d行", len(track.Translation))
	}
}

func TestWithTranslation(t *testing.T) {
	track := Track{Origin: []Line{{1000, "a"}, {2000, "b"}}}

	got := track.WithTranslation([]string{"甲", "乙"})
	if len(got.Translation) != 2 {
		t.Fatalf("预期2行翻译，实际%d", len(got.Translation))
	}
	if got.Translation[1].TimestampMs != 2000 || got.Translation[1].Text != "乙" {
		t.Errorf("unexpected translation: %+v", got.Translation[1])
	}

	// 行数不匹配时不挂翻译
	same := track.WithTranslation([]string{"只有一行"})
	if len(same.Translation) != 0 {
		t.Errorf("行数不匹配时不应挂翻译")
	}
}
