package netease

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"testing"
)

func aesDecryptCBC(t *testing.T, encoded, key, iv string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("bad base64: %v", err)
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		t.Fatalf("bad key: %v", err)
	}
	dst := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, []byte(iv)).CryptBlocks(dst, raw)
	// 去掉pkcs7填充
	padding := int(dst[len(dst)-1])
	return string(dst[:len(dst)-padding])
}

func TestAESRoundTrip(t *testing.T) {
	plain := `{"s":"keyword","type":"1"}`
	encoded, err := aesEncryptCBC(plain, weapiNonce, weapiIV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aesDecryptCBC(t, encoded, weapiNonce, weapiIV); got != plain {
		t.Errorf("roundtrip mismatch: %q", got)
	}
}

func TestEncryptWeapiShape(t *testing.T) {
	params, encSecKey, err := encryptWeapi(`{"id":"123"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params == "" {
		t.Error("params empty")
	}
	if _, err := base64.StdEncoding.DecodeString(params); err != nil {
		t.Errorf("params is not base64: %v", err)
	}
	// RSA NoPadding 输出固定256个十六进制字符
	if len(encSecKey) != 256 {
		t.Errorf("预期encSecKey长度256，实际%d", len(encSecKey))
	}
}

func TestRandomKey(t *testing.T) {
	key := randomKey(16)
	if len(key) != 16 {
		t.Fatalf("预期长度16，实际%d", len(key))
	}
	if key == randomKey(16) {
		t.Error("two random keys should differ")
	}
}

func TestReverseString(t *testing.T) {
	if got := reverseString("abc123"); got != "321cba" {
		t.Errorf("unexpected reverse: %q", got)
	}
}
