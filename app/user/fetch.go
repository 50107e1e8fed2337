package user

import (
	"net/http"

	"cobi/auth-api/internal"
	"cobi/auth-api/internal/model"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the account behind the presented token. The auth
// middleware already resolved the session, so there's nothing left to
// check here
func UserFetch(c *gin.Context, d *internal.Deps) {
	user := c.MustGet("user").(*model.User)

	c.JSON(http.StatusOK, user)
}
