package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// legacyChatParam marks links from the old site that opened the chat page.
const legacyChatParam = "oldChat"

// LegacyRedirect sends old "/?oldChat=" links to the chat page, keeping the
// query string. Only the site root is redirected.
func LegacyRedirect(chatPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path != "/" || !c.Request.URL.Query().Has(legacyChatParam) {
			c.Next()
			return
		}

		target := chatPath + "?" + c.Request.URL.RawQuery
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}
