package api

import (
	"net/http"
	"time"

	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/quest"
	"github.com/gin-gonic/gin"
)

// objectiveResponse is an objective definition with its targets and
// customizations decoded for the wire.
type objectiveResponse struct {
	models.Objective
	Targets        []quest.Target       `json:"targets"`
	Customizations quest.Customizations `json:"customizations"`
}

func toObjectiveResponse(def quest.ObjectiveDefinition) objectiveResponse {
	return objectiveResponse{
		Objective:      def.Row,
		Targets:        def.Targets,
		Customizations: def.Customizations,
	}
}

type createQuestRequest struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

func (s *Server) handleCreateQuest(c *gin.Context) {
	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	q, err := quest.CreateQuest(s.db, quest.CreateQuestOpts{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (s *Server) handleListQuests(c *gin.Context) {
	var (
		quests []models.Quest
		err    error
	)
	if c.Query("available") == "true" {
		quests, err = quest.ListAvailableQuests(s.db, time.Now().UTC())
	} else {
		quests, err = quest.ListQuests(s.db)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quests)
}

func (s *Server) handleGetQuest(c *gin.Context) {
	id, ok := uintParam(c, "questId")
	if !ok {
		return
	}
	q, err := quest.GetQuest(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type questPatchRequest struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
}

func (s *Server) handleUpdateQuest(c *gin.Context) {
	id, ok := uintParam(c, "questId")
	if !ok {
		return
	}
	var req questPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	q, err := quest.UpdateQuest(s.db, id, quest.QuestPatch{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type rewardRequest struct {
	Balance     *int    `json:"balance"`
	Item        *string `json:"item"`
	Count       int     `json:"count"`
	DisplayName *string `json:"display_name"`
}

type createObjectiveRequest struct {
	OrderIndex     int                  `json:"order_index"`
	Type           string               `json:"objective_type"`
	Logic          string               `json:"logic"`
	TargetCount    *int                 `json:"target_count"`
	Targets        []quest.Target       `json:"targets"`
	Customizations quest.Customizations `json:"customizations"`
	Rewards        []rewardRequest      `json:"rewards"`
}

func (s *Server) handleCreateObjective(c *gin.Context) {
	questID, ok := uintParam(c, "questId")
	if !ok {
		return
	}
	var req createObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	rewards := make([]quest.CreateRewardOpts, len(req.Rewards))
	for i, r := range req.Rewards {
		rewards[i] = quest.CreateRewardOpts{
			Balance:     r.Balance,
			Item:        r.Item,
			Count:       r.Count,
			DisplayName: r.DisplayName,
		}
	}
	def, err := quest.CreateObjective(s.db, questID, quest.CreateObjectiveOpts{
		OrderIndex:     req.OrderIndex,
		Type:           quest.TargetType(req.Type),
		Logic:          quest.Logic(req.Logic),
		TargetCount:    req.TargetCount,
		Targets:        req.Targets,
		Customizations: req.Customizations,
		Rewards:        rewards,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toObjectiveResponse(*def))
}

func (s *Server) handleListObjectives(c *gin.Context) {
	questID, ok := uintParam(c, "questId")
	if !ok {
		return
	}
	defs, err := quest.ListObjectivesByQuest(s.db, questID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out := make([]objectiveResponse, len(defs))
	for i, def := range defs {
		out[i] = toObjectiveResponse(def)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetObjective(c *gin.Context) {
	id, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	def, err := quest.GetObjective(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toObjectiveResponse(*def))
}

type objectivePatchRequest struct {
	OrderIndex     *int                  `json:"order_index"`
	Type           *string               `json:"objective_type"`
	Logic          *string               `json:"logic"`
	TargetCount    *int                  `json:"target_count"`
	Targets        []quest.Target        `json:"targets"`
	Customizations *quest.Customizations `json:"customizations"`
}

func (s *Server) handleUpdateObjective(c *gin.Context) {
	id, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	var req objectivePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	patch := quest.ObjectivePatch{
		OrderIndex:     req.OrderIndex,
		TargetCount:    req.TargetCount,
		Targets:        req.Targets,
		Customizations: req.Customizations,
	}
	if req.Type != nil {
		t := quest.TargetType(*req.Type)
		patch.Type = &t
	}
	if req.Logic != nil {
		l := quest.Logic(*req.Logic)
		patch.Logic = &l
	}
	def, err := quest.UpdateObjective(s.db, id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toObjectiveResponse(*def))
}

func (s *Server) handleCreateReward(c *gin.Context) {
	objectiveID, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	reward, err := quest.CreateReward(s.db, objectiveID, quest.CreateRewardOpts{
		Balance:     req.Balance,
		Item:        req.Item,
		Count:       req.Count,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reward)
}

func (s *Server) handleListRewards(c *gin.Context) {
	objectiveID, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	rewards, err := quest.ListRewardsByObjective(s.db, objectiveID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rewards)
}

func (s *Server) handleGetReward(c *gin.Context) {
	id, ok := uintParam(c, "rewardId")
	if !ok {
		return
	}
	reward, err := quest.GetReward(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

func (s *Server) handleUpdateReward(c *gin.Context) {
	id, ok := uintParam(c, "rewardId")
	if !ok {
		return
	}
	var req struct {
		Balance     *int    `json:"balance"`
		Item        *string `json:"item"`
		Count       *int    `json:"count"`
		DisplayName *string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	reward, err := quest.UpdateReward(s.db, id, quest.RewardPatch{
		Balance:     req.Balance,
		Item:        req.Item,
		Count:       req.Count,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}
