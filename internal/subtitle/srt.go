// Package subtitle 把规范歌词轨转换成字幕文档。
package subtitle

import (
	"errors"
	"fmt"
	"strings"

	"lyricbridge/internal/lyric"
)

// ErrEmptyLyric 首选变体全部为空，没有可转换的内容
var ErrEmptyLyric = errors.New("no lyric variant to convert")

const (
	// 末行默认显示时长
	lastLineDurationMs = 3000
	// 每行最小可见时长。短于此值时延长结束时间，
	// 允许与下一条的起始时间重叠：重叠比闪现不可读的行更可接受。
	minDurationMs = 500
)

// Entry 单条字幕
type Entry struct {
	Index   int    `json:"index"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Document 派生的字幕文档，只在一次导出动作内存在
type Document []Entry

// DefaultPreference 变体选择顺序：原文、翻译、罗马音
var DefaultPreference = []lyric.Variant{
	lyric.VariantOrigin,
	lyric.VariantTranslation,
	lyric.VariantTransliteration,
}

// FromTrack 按偏好选择第一个非空变体并计算每行显示区间。
// 纯函数：相同输入永远产出字节级相同的文档。
func FromTrack(track lyric.Track, preference []lyric.Variant) (Document, error) {
	if len(preference) == 0 {
		preference = DefaultPreference
	}

	var lines []lyric.Line
	for _, v := range preference {
		if selected := track.Lines(v); len(selected) > 0 {
			lines = selected
			break
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyLyric
	}

	doc := make(Document, len(lines))
	for i, line := range lines {
		end := line.TimestampMs + lastLineDurationMs
		if i+1 < len(lines) {
			end = lines[i+1].TimestampMs - 1
		}
		if end-line.TimestampMs < minDurationMs {
			end = line.TimestampMs + minDurationMs
		}
		doc[i] = Entry{
			Index:   i + 1,
			StartMs: line.TimestampMs,
			EndMs:   end,
			Text:    line.Text,
		}
	}
	return doc, nil
}

// Render 输出SRT文本：序号、HH:MM:SS,mmm --> HH:MM:SS,mmm、正文、空行
func (d Document) Render() string {
	var b strings.Builder
	for _, e := range d {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", e.Index, formatSRTTimestamp(e.StartMs), formatSRTTimestamp(e.EndMs), e.Text)
	}
	return b.String()
}

func formatSRTTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// RenderLRC 按偏好输出LRC文本，供选择 .lrc 导出格式的用户使用
func RenderLRC(track lyric.Track, preference []lyric.Variant) (string, error) {
	if len(preference) == 0 {
		preference = DefaultPreference
	}

	var lines []lyric.Line
	for _, v := range preference {
		if selected := track.Lines(v); len(selected) > 0 {
			lines = selected
			break
		}
	}
	if len(lines) == 0 {
		if track.Fallback != "" {
			return track.Fallback, nil
		}
		return "", ErrEmptyLyric
	}

	var b strings.Builder
	for _, line := range lines {
		ms := line.TimestampMs
		if ms < 0 {
			ms = 0
		}
		fmt.Fprintf(&b, "[%02d:%02d.%03d]%s\n", ms/60000, ms%60000/1000, ms%1000, line.Text)
	}
	return b.String(), nil
}
