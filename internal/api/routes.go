package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Users.
	v1.POST("/users", s.handleCreateUser)
	v1.GET("/users/:thornyId", s.handleGetUser)
	v1.PATCH("/users/:thornyId", s.handleUpdateUser)
	v1.POST("/users/:thornyId/balance", s.handleAdjustBalance)
	v1.GET("/users/:thornyId/playtime", s.handlePlaytime)
	v1.GET("/users/:thornyId/sessions", s.handleSessions)
	v1.GET("/users/:thornyId/wrapped", s.handleWrapped)

	// Guild configuration (read-only view).
	v1.GET("/guilds/:guildId", s.handleGetGuild)

	// Projects.
	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects", s.handleListProjects)
	v1.GET("/projects/:projectId", s.handleGetProject)
	v1.PUT("/projects/:projectId/status", s.handleProjectStatus)
	v1.POST("/projects/:projectId/members", s.handleAddProjectMember)

	// Quest definitions.
	v1.POST("/quests", s.handleCreateQuest)
	v1.GET("/quests", s.handleListQuests)
	v1.GET("/quests/:questId", s.handleGetQuest)
	v1.PATCH("/quests/:questId", s.handleUpdateQuest)
	v1.POST("/quests/:questId/objectives", s.handleCreateObjective)
	v1.GET("/quests/:questId/objectives", s.handleListObjectives)

	// Objective and reward definitions.
	v1.GET("/objectives/:objectiveId", s.handleGetObjective)
	v1.PATCH("/objectives/:objectiveId", s.handleUpdateObjective)
	v1.POST("/objectives/:objectiveId/rewards", s.handleCreateReward)
	v1.GET("/objectives/:objectiveId/rewards", s.handleListRewards)
	v1.GET("/rewards/:rewardId", s.handleGetReward)
	v1.PATCH("/rewards/:rewardId", s.handleUpdateReward)

	// Quest progress.
	v1.POST("/users/:thornyId/quests", s.handleAcceptQuest)
	v1.GET("/users/:thornyId/quests", s.handleListPlayerQuests)
	v1.GET("/users/:thornyId/quests/active", s.handleActiveQuest)
	v1.GET("/progress/:progressId", s.handleGetProgress)
	v1.POST("/progress/:progressId/fail", s.handleFailProgress)
	v1.PATCH("/progress/:progressId", s.handleUpdateProgress)
	v1.GET("/progress/:progressId/objectives/:objectiveId", s.handleGetObjectiveProgress)
	v1.PATCH("/progress/:progressId/objectives/:objectiveId", s.handleUpdateObjectiveProgress)

	// Game-server event ingestion.
	v1.POST("/events/interactions", s.handleInteraction)
	v1.POST("/events/connections", s.handleConnection)

	// Leaderboards.
	v1.GET("/leaderboards/playtime", s.handlePlaytimeLeaderboard)
	v1.GET("/leaderboards/quests", s.handleQuestLeaderboard)
}

// uintParam parses a numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
