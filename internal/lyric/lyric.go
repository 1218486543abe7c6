// Package lyric 把异构的歌词载荷统一成规范的时间戳行模型。
package lyric

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lyricbridge/pkg/music"
)

// Line 歌词行。同一轨内时间戳排序后单调不减，允许重复
// （对唱等多行同时显示的场景）。
type Line struct {
	TimestampMs int    `json:"timestamp_ms"`
	Text        string `json:"text"`
}

// Variant 歌词变体
type Variant string

const (
	VariantOrigin          Variant = "origin"
	VariantTranslation     Variant = "translation"
	VariantTransliteration Variant = "transliteration"
)

// Track 规范化后的歌词轨。三个变体互相独立，
// Fallback 在原文完全没有时间戳语法时保留纯文本。
type Track struct {
	Origin          []Line         `json:"origin"`
	Translation     []Line         `json:"translation,omitempty"`
	Transliteration []Line         `json:"transliteration,omitempty"`
	Source          music.Provider `json:"search_source"`
	Fallback        string         `json:"fallback,omitempty"`
	Partial         bool           `json:"partial,omitempty"`
}

// Lines 按变体取行
func (t Track) Lines(v Variant) []Line {
	switch v {
	case VariantTranslation:
		return t.Translation
	case VariantTransliteration:
		return t.Transliteration
	default:
		return t.Origin
	}
}

var timestampRE = regexp.MustCompile(`\[(\d{1,2}):(\d{1,2})(?:\.(\d{1,3}))?\]`)

// ParseLRC 解析时间戳行格式。一行带多个时间标签时按标签各发一行
// （repeat歌词）；没有标签的行挂到前一个时间戳上，没有前驱则丢弃。
// 输出按时间戳升序，相同时间戳保持输入顺序。
func ParseLRC(text string) []Line {
	var result []Line
	lastTs := -1

	for _, rawLine := range strings.Split(text, "\n") {
		matches := timestampRE.FindAllStringSubmatch(rawLine, -1)
		content := strings.TrimSpace(timestampRE.ReplaceAllString(rawLine, ""))

		if len(matches) == 0 {
			if content != "" && lastTs >= 0 {
				result = append(result, Line{TimestampMs: lastTs, Text: content})
			}
			continue
		}
		for _, m := range matches {
			min, _ := strconv.Atoi(m[1])
			sec, _ := strconv.Atoi(m[2])
			ms := 0
			if m[3] != "" {
				// 小数位不足三位按右补零处理: .1 -> 100ms, .49 -> 490ms
				padded := (m[3] + "000")[:3]
				ms, _ = strconv.Atoi(padded)
			}
			ts := (min*60+sec)*1000 + ms
			lastTs = ts
			if content != "" {
				result = append(result, Line{TimestampMs: ts, Text: content})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

// Normalize 把提供商返回的原始歌词解析成规范轨。
// 翻译/罗马音按行序号对齐到原文，不按时间戳相等匹配：
// 翻译行经常带着顺序不同的相同时间戳。
func Normalize(raw music.Lyric) (Track, error) {
	if strings.TrimSpace(raw.Origin) == "" {
		return Track{}, fmt.Errorf("%w: empty origin payload", music.ErrNoLyric)
	}

	track := Track{Source: raw.Source, Partial: raw.Partial}
	track.Origin = ParseLRC(raw.Origin)

	if len(track.Origin) == 0 {
		// 纯文本歌词没有时间戳语法，整体保留为untimed fallback，
		// 不去猜测每行的时间
		track.Fallback = strings.TrimSpace(raw.Origin)
		return track, nil
	}

	track.Translation = alignToOrigin(track.Origin, ParseLRC(raw.Translation))
	track.Transliteration = alignToOrigin(track.Origin, ParseLRC(raw.Transliteration))
	return track, nil
}

// alignToOrigin 变体第N行对应原文第N行，重新挂到原文的时间戳上。
// 超出原文行数的变体行丢弃。
func alignToOrigin(origin, variant []Line) []Line {
	if len(variant) == 0 {
		return nil
	}
	n := len(variant)
	if len(origin) < n {
		n = len(origin)
	}
	out := make([]Line, n)
	for i := 0; i < n; i++ {
		out[i] = Line{TimestampMs: origin[i].TimestampMs, Text: variant[i].Text}
	}
	return out
}

// WithTranslation 返回挂上翻译变体的副本，行序号与原文一一对应
func (t Track) WithTranslation(texts []string) Track {
	if len(texts) != len(t.Origin) {
		return t
	}
	translation := make([]Line, len(texts))
	for i, text := range texts {
		translation[i] = Line{TimestampMs: t.Origin[i].TimestampMs, Text: text}
	}
	t.Translation = translation
	return t
}

// Texts 抽取行文本
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
