package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InfoHandler answers GET /: browsers get the form page, API clients the
// service info as JSON.
type InfoHandler struct {
	info InfoResponse
	page []byte
}

func NewInfoHandler(info InfoResponse, page []byte) *InfoHandler {
	return &InfoHandler{info: info, page: page}
}

func (h *InfoHandler) Info(c *gin.Context) {
	if len(h.page) > 0 && c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
		return
	}
	c.JSON(http.StatusOK, h.info)
}
