package playground

import (
	"errors"
	"net/http"

	"recipegen/internal/shell"

	"github.com/gin-gonic/gin"
)

const shellKey = "shell"

// sessionMiddleware resolves the caller's shell from the session cookie,
// creating one on first visit.
func (s *PlaygroundServer) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(SessionCookie)
		before := s.store.Len()
		id, sh := s.store.GetOrCreate(cookie)
		if id != cookie {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
		}
		if n := s.store.Len(); n != before && s.monitor != nil {
			s.monitor.SetActiveSessions(n)
		}
		c.Set(shellKey, sh)
		c.Next()
	}
}

func shellFrom(c *gin.Context) *shell.Shell {
	return c.MustGet(shellKey).(*shell.Shell)
}

// handleHome renders the whole page from the current snapshot
func (s *PlaygroundServer) handleHome(c *gin.Context) {
	snap := shellFrom(c).Snapshot()
	c.HTML(http.StatusOK, "index.tmpl", pageData{Title: pageTitle, Snapshot: snap})
}

// handleGenerate triggers a generation with the submitted ingredients
func (s *PlaygroundServer) handleGenerate(c *gin.Context) {
	err := shellFrom(c).Trigger(c.PostForm("ingredients"))
	switch {
	case errors.Is(err, shell.ErrBusy):
		s.log.Debug().Msg("generate ignored, attempt in flight")
	case errors.Is(err, shell.ErrClosed):
		s.log.Warn().Msg("generate ignored, session closed")
	case errors.Is(err, shell.ErrEmptyInput):
		s.log.Debug().Msg("generate ignored, blank ingredients")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// handleCancel aborts the attempt in flight, if any
func (s *PlaygroundServer) handleCancel(c *gin.Context) {
	shellFrom(c).Cancel()
	c.Redirect(http.StatusSeeOther, "/")
}

// handleState returns the session snapshot as JSON
func (s *PlaygroundServer) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, shellFrom(c).Snapshot())
}
