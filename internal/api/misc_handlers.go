package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/everthorn/thorny/internal/analytics"
	"github.com/everthorn/thorny/internal/apperr"
	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/projects"
	"github.com/everthorn/thorny/internal/relay"
	"github.com/everthorn/thorny/internal/telemetry"
	"github.com/everthorn/thorny/internal/users"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createUserRequest struct {
	UserID   string `json:"user_id"`
	GuildID  string `json:"guild_id"`
	Username string `json:"username"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := users.Create(s.db, users.CreateOpts{
		UserID:   req.UserID,
		GuildID:  req.GuildID,
		Username: req.Username,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleGetUser(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	user, err := users.Get(s.db, thornyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type userPatchRequest struct {
	Username  *string `json:"username"`
	Whitelist *string `json:"whitelist"`
	Role      *string `json:"role"`
	Patron    *bool   `json:"patron"`
	Active    *bool   `json:"active"`
	Level     *int    `json:"level"`
	XP        *int    `json:"xp"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	var req userPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := users.Update(s.db, thornyID, users.Patch{
		Username:  req.Username,
		Whitelist: req.Whitelist,
		Role:      req.Role,
		Patron:    req.Patron,
		Active:    req.Active,
		Level:     req.Level,
		XP:        req.XP,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type balanceRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleAdjustBalance(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	var req balanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := users.AdjustBalance(s.db, thornyID, req.Delta)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handlePlaytime(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	seconds, err := telemetry.Playtime(s.db, thornyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thorny_id": thornyID, "seconds": seconds})
}

func (s *Server) handleSessions(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := telemetry.Sessions(s.db, thornyID, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleWrapped(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year == 0 {
		year = time.Now().UTC().Year()
	}
	wrapped, err := analytics.BuildWrapped(s.db, thornyID, year)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wrapped)
}

func (s *Server) handleGetGuild(c *gin.Context) {
	id := c.Param("guildId")
	var guild models.Guild
	if err := s.db.Where("id = ?", id).First(&guild).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.respondError(c, apperr.NotFound("guild", id))
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guild)
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	Dimension   string `json:"dimension"`
	CoordX      int    `json:"coord_x"`
	CoordY      int    `json:"coord_y"`
	CoordZ      int    `json:"coord_z"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := projects.Create(s.db, projects.CreateOpts{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		Dimension:   req.Dimension,
		CoordX:      req.CoordX,
		CoordY:      req.CoordY,
		CoordZ:      req.CoordZ,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleListProjects(c *gin.Context) {
	list, err := projects.List(s.db, c.Query("status"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetProject(c *gin.Context) {
	p, err := projects.Get(s.db, c.Param("projectId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type projectStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleProjectStatus(c *gin.Context) {
	var req projectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := projects.UpdateStatus(s.db, c.Param("projectId"), req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.announce(c, relay.Event{
		Kind:      relay.KindProjectStatus,
		QuestName: p.Name,
		Detail:    p.Status,
	})
	c.JSON(http.StatusOK, p)
}

type addMemberRequest struct {
	ThornyID uint `json:"thorny_id"`
}

func (s *Server) handleAddProjectMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	projectID := c.Param("projectId")
	if err := projects.AddMember(s.db, projectID, req.ThornyID); err != nil {
		s.respondError(c, err)
		return
	}
	members, err := projects.Members(s.db, projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, members)
}

func (s *Server) handlePlaytimeLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := analytics.PlaytimeLeaderboard(s.db, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleQuestLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := analytics.QuestLeaderboard(s.db, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
