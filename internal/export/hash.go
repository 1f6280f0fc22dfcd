package export

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
)

// MD5Hex returns the hex MD5 of data (업로드 중복 판정용)
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileMD5 returns the hex MD5 of the file at path
func FileMD5(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return MD5Hex(data), nil
}
