package middleware

import (
	"regexp"

	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const (
	// SessionHeader 前端帶入的工作階段標頭
	SessionHeader = "X-Session-ID"
	// SessionKey gin context 中的工作階段鍵
	SessionKey = "session_id"

	sessionIssuedKey = "session_issued"
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Session 讀取或產生工作階段 ID，並在回應中帶回
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if !sessionPattern.MatchString(id) {
			id = common.GenerateUUID()
			c.Set(sessionIssuedKey, true)
		}
		c.Set(SessionKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

// SessionID 取得目前請求的工作階段 ID
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}

// SessionIssued 工作階段 ID 是否由本次請求產生（用戶端未帶或格式錯誤）
func SessionIssued(c *gin.Context) bool {
	return c.GetBool(sessionIssuedKey)
}
