package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandBase64 生成 n 字节的强随机数据，并以标准 base64（带填充）编码。
func RandBase64(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
