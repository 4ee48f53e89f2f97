package handlers

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/services"
)

// viewerFromContext assembles who is asking: the casdoor user, if any, and the client session
func viewerFromContext(c *gin.Context) services.Viewer {
	viewer := services.Viewer{
		Client: c.GetString(clientContextKey),
	}
	if lang := c.Query("lang"); slices.Contains(models.SupportedLanguages, lang) {
		viewer.Language = lang
	}

	if user, err := GetUserFromContext(c); err == nil {
		viewer.UserID = user.ID
		viewer.Name = user.PreferredName()
		viewer.Email = user.Email
		viewer.IsSuperuser = user.IsAdmin || user.Role == models.RoleAdmin
	}
	return viewer
}
