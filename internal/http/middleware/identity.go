package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/model"
)

// The host application authenticates; it forwards the resolved identity in
// these headers and this service trusts them. Deployments must strip the
// headers from untrusted traffic at the edge.
const (
	HeaderUserID      = "X-Commentary-User-Id"
	HeaderUserEmail   = "X-Commentary-User-Email"
	HeaderUserName    = "X-Commentary-User-Name"
	HeaderUserURL     = "X-Commentary-User-Url"
	HeaderIsModerator = "X-Commentary-Moderator"

	sessionCookieName = "commentary_session"
	sessionKeyBytes   = 16

	actorContextKey = "commentary_actor"
)

// Identity resolves the acting identity for every request. Authenticated
// identity comes from the forwarded headers; anonymous visitors get a
// session cookie so their feedback flags are tracked per session.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.Actor{
			Name:  c.GetHeader(HeaderUserName),
			Email: c.GetHeader(HeaderUserEmail),
			URL:   c.GetHeader(HeaderUserURL),
		}

		if raw := c.GetHeader(HeaderUserID); raw != "" {
			if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				actor.UserID = &userID
				actor.IsModerator = c.GetHeader(HeaderIsModerator) == "true"
			}
		}

		if !actor.Authenticated() {
			actor.SessionKey = ensureSessionKey(c)
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// Actor returns the identity resolved by the Identity middleware. Routes
// without the middleware see an anonymous actor with no session.
func Actor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}

func ensureSessionKey(c *gin.Context) string {
	if key, err := c.Cookie(sessionCookieName); err == nil && key != "" {
		return key
	}

	buf := make([]byte, sessionKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		// No randomness means no session tracking; the request still works.
		return ""
	}
	key := hex.EncodeToString(buf)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, key, 0, "/", "", false, true)
	return key
}
