package netease

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

// weapi 加密常量，网页端固定值
const (
	weapiNonce   = "0CoJUm6Qyw8W8jud"
	weapiIV      = "0102030405060708"
	weapiModulus = "00e0b509f6259df8642dbc35662901477df22677ec152b5ff68ace615bb7b725152b3ab17a876aea8a5aa76d2e417629ec4ee341f56135fccf695280104e0312ecbda92557c93870114af6c9d05c4f7f0c3685b7a46bee255932575cce10b424d813cfe4875d3e82047b97ddef52741d546b8e289dc6935b3ece0462db0a22b8e7"
	weapiPubKey  = "010001"
)

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func randomKey(size int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, size)
	rand.Read(b)
	out := make([]byte, size)
	for i, v := range b {
		out[i] = letters[int(v)%len(letters)]
	}
	return string(out)
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func aesEncryptCBC(text, key, iv string) (string, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", err
	}
	src := pkcs7Pad([]byte(text), block.BlockSize())
	dst := make([]byte, len(src))
	cipher.NewCBCEncrypter(block, []byte(iv)).CryptBlocks(dst, src)
	return base64.StdEncoding.EncodeToString(dst), nil
}

// rsaEncrypt NoPadding 大数运算: (reverse(text) as hex)^pub % mod
func rsaEncrypt(text, pubKey, modulus string) string {
	hexText := hex.EncodeToString([]byte(reverseString(text)))

	biText, _ := new(big.Int).SetString(hexText, 16)
	biPub, _ := new(big.Int).SetString(pubKey, 16)
	biMod, _ := new(big.Int).SetString(modulus, 16)

	return fmt.Sprintf("%0256x", new(big.Int).Exp(biText, biPub, biMod))
}

// encryptWeapi 两次 AES-CBC 加密正文，RSA 加密随机密钥，
// 返回 params 和 encSecKey 两个表单字段。
func encryptWeapi(text string) (params, encSecKey string, err error) {
	secKey := randomKey(16)

	encText, err := aesEncryptCBC(text, weapiNonce, weapiIV)
	if err != nil {
		return "", "", err
	}
	params, err = aesEncryptCBC(encText, secKey, weapiIV)
	if err != nil {
		return "", "", err
	}
	return params, rsaEncrypt(secKey, weapiPubKey, weapiModulus), nil
}
