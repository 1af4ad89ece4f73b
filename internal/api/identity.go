package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"quotedesk/internal/model"
)

// 身份请求头
const (
	HeaderUser   = "X-User"
	HeaderRegion = "X-Region"
	HeaderRole   = "X-Role"
)

const identityKey = "identity"

// requireIdentity 从请求头读取调用方身份，缺少用户或区域时拒绝
func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := model.Identity{
			Username: strings.TrimSpace(c.GetHeader(HeaderUser)),
			Region:   strings.TrimSpace(c.GetHeader(HeaderRegion)),
			Role:     strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderRole))),
		}
		if id.Username == "" || id.Region == "" {
			errorResponse(c, http.StatusUnauthorized, CodeUnauthorized, "缺少用户或区域信息")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityOf(c *gin.Context) model.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(model.Identity)
	return id
}

// requireAdmin 管理员校验，失败时已写入响应
func requireAdmin(c *gin.Context) (model.Identity, bool) {
	id := identityOf(c)
	if !id.IsAdmin() {
		errorResponse(c, http.StatusForbidden, CodeForbidden, "仅管理员可执行该操作")
		return id, false
	}
	return id, true
}

// scopedRegion 非管理员只能访问本区域数据
func scopedRegion(id model.Identity, requested string) string {
	if id.IsAdmin() {
		return strings.TrimSpace(requested)
	}
	return id.Region
}
