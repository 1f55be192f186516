package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
)

// HashKey 以 sha256 產生快取鍵，各部分以換行分隔
func HashKey(prefix string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return prefix + ":" + hex.EncodeToString(h[:])
}

// WriteError 依錯誤類型寫入統一格式的錯誤響應
func WriteError(c *gin.Context, err error) {
	ce := AsCustomError(err)
	resp := ErrorResponse{Code: ce.Code, Message: ce.Message}
	if gin.Mode() != gin.ReleaseMode && ce.Err != nil {
		resp.Details = ce.Err.Error()
	}
	c.AbortWithStatusJSON(ce.Status, resp)
}

// DedupeStrings 去除空白與重複，保留首次出現順序
func DedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
