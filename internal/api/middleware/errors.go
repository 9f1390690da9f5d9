package middleware

import (
	"math"
	"strconv"
	"time"

	"recipe-browser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DebugKey gin context 中是否輸出錯誤細節
const DebugKey = "debug"

// RespondError 以 CustomError 的狀態碼與代碼回應並中止請求
func RespondError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求無效", fields...)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.ToResponse(c.GetBool(DebugKey)))
}

// RespondRetry 回應需要稍後重試的錯誤，於標頭與 body 帶出等待秒數（至少 1）
func RespondRetry(c *gin.Context, err error, wait time.Duration) {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	ce := common.AsCustomError(err)
	common.LogDebug("請求需稍後重試",
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.Int("retry_after", seconds),
	)
	resp := ce.ToResponse(c.GetBool(DebugKey))
	resp.RetryAfter = seconds
	c.Header("Retry-After", strconv.Itoa(seconds))
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, resp)
}
