package qqmusic

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"crypto/des"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// lyric_download.fcg 通道的固定3DES密钥
var lyricKey = []byte("!@#)(*$%123ZXC!@!@#)(NHL")

// decryptLyric 十六进制 -> 3DES-ECB 解密 -> zlib/deflate 解压
func decryptLyric(hexText string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexText))
	if err != nil {
		return "", fmt.Errorf("lyric payload is not hex: %w", err)
	}

	block, err := des.NewTripleDESCipher(lyricKey)
	if err != nil {
		return "", fmt.Errorf("failed to init 3des cipher: %w", err)
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", fmt.Errorf("lyric payload length %d is not a cipher block multiple", len(raw))
	}

	decrypted := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(decrypted[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}

	out, err := inflate(decrypted)
	if err != nil {
		return "", fmt.Errorf("failed to inflate lyric payload: %w", err)
	}
	return string(out), nil
}

// inflate 优先按zlib解压，失败时回退raw deflate
func inflate(data []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		defer zr.Close()
		if out, err := io.ReadAll(zr); err == nil {
			return out, nil
		}
	}

	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return io.ReadAll(fr)
}

// extractLyricContent 解密结果有时还包着一层QRC XML，
// 真正的歌词在 Lyric_1 的 LyricContent 属性里。
func extractLyricContent(text string) string {
	if !strings.Contains(text, "<?xml") {
		return text
	}

	decoder := xml.NewDecoder(strings.NewReader(text))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return text
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "Lyric_1" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "LyricContent" && attr.Value != "" {
				return attr.Value
			}
		}
		return text
	}
}

// parseLyricXML 抽取 content/contentts/contentroma 三个节点并解密。
// Lyric_1 节点作为原文的兜底。
func parseLyricXML(raw string) map[string]string {
	textMap := make(map[string]string)

	wanted := map[string]string{
		"content":     "origin",
		"contentts":   "translation",
		"contentroma": "transliteration",
		"Lyric_1":     "fallback",
	}

	decoder := xml.NewDecoder(strings.NewReader(raw))
	var current string
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, ok := wanted[t.Name.Local]; ok {
				current = t.Name.Local
				buf.Reset()
			}
		case xml.CharData:
			if current != "" {
				buf.Write(t)
			}
		case xml.EndElement:
			if current == "" || t.Name.Local != current {
				continue
			}
			hexText := strings.TrimSpace(buf.String())
			current = ""
			if hexText == "" {
				continue
			}
			decrypted, err := decryptLyric(hexText)
			if err != nil {
				continue
			}
			textMap[wanted[t.Name.Local]] = extractLyricContent(decrypted)
		}
	}
	return textMap
}
