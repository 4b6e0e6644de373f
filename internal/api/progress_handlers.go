package api

import (
	"net/http"
	"time"

	"github.com/everthorn/thorny/internal/models"
	"github.com/everthorn/thorny/internal/progress"
	"github.com/everthorn/thorny/internal/quest"
	"github.com/everthorn/thorny/internal/relay"
	"github.com/everthorn/thorny/internal/telemetry"
	"github.com/everthorn/thorny/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// objectiveStateResponse is an objective progress row with its counters
// decoded for the wire.
type objectiveStateResponse struct {
	models.ObjectiveProgress
	Targets        []quest.TargetProgress      `json:"targets"`
	Customizations quest.CustomizationProgress `json:"customizations"`
}

func toObjectiveStateResponse(state progress.ObjectiveState) objectiveStateResponse {
	return objectiveStateResponse{
		ObjectiveProgress: state.Row,
		Targets:           state.Targets,
		Customizations:    state.Customizations,
	}
}

type acceptQuestRequest struct {
	QuestID uint `json:"quest_id"`
}

func (s *Server) handleAcceptQuest(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	var req acceptQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	header, err := progress.Accept(s.db, thornyID, req.QuestID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.announce(c, relay.Event{
		Kind:      relay.KindQuestAccepted,
		Username:  s.usernameOf(thornyID),
		QuestName: s.questTitleOf(req.QuestID),
	})
	c.JSON(http.StatusCreated, header)
}

func (s *Server) handleListPlayerQuests(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	rows, err := progress.ListByPlayer(s.db, thornyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleActiveQuest(c *gin.Context) {
	thornyID, ok := uintParam(c, "thornyId")
	if !ok {
		return
	}
	header, err := progress.FetchActive(s.db, thornyID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, header)
}

func (s *Server) handleGetProgress(c *gin.Context) {
	id, ok := uintParam(c, "progressId")
	if !ok {
		return
	}
	header, err := progress.Get(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, header)
}

func (s *Server) handleFailProgress(c *gin.Context) {
	id, ok := uintParam(c, "progressId")
	if !ok {
		return
	}
	header, err := progress.MarkFailed(s.db, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.announce(c, relay.Event{
		Kind:      relay.KindQuestFailed,
		Username:  s.usernameOf(header.ThornyID),
		QuestName: s.questTitleOf(header.QuestID),
		Detail:    "marked failed",
	})
	c.JSON(http.StatusOK, header)
}

type progressPatchRequest struct {
	Status    *string    `json:"status"`
	StartedOn *time.Time `json:"started_on"`
}

func (s *Server) handleUpdateProgress(c *gin.Context) {
	id, ok := uintParam(c, "progressId")
	if !ok {
		return
	}
	var req progressPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	header, err := progress.UpdateProgress(s.db, id, progress.ProgressPatch{
		Status:    req.Status,
		StartedOn: req.StartedOn,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, header)
}

func (s *Server) handleGetObjectiveProgress(c *gin.Context) {
	progressID, ok := uintParam(c, "progressId")
	if !ok {
		return
	}
	objectiveID, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	state, err := progress.GetObjectiveProgress(s.db, progressID, objectiveID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toObjectiveStateResponse(*state))
}

type objectiveProgressPatchRequest struct {
	Status         *string                      `json:"status"`
	StartTime      *time.Time                   `json:"start_time"`
	EndTime        *time.Time                   `json:"end_time"`
	Targets        []quest.TargetProgress       `json:"targets"`
	Customizations *quest.CustomizationProgress `json:"customizations"`
}

func (s *Server) handleUpdateObjectiveProgress(c *gin.Context) {
	progressID, ok := uintParam(c, "progressId")
	if !ok {
		return
	}
	objectiveID, ok := uintParam(c, "objectiveId")
	if !ok {
		return
	}
	var req objectiveProgressPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	state, err := progress.UpdateObjectiveProgress(s.db, progressID, objectiveID, progress.ObjectivePatch{
		Status:         req.Status,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Targets:        req.Targets,
		Customizations: req.Customizations,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toObjectiveStateResponse(*state))
}

type interactionRequest struct {
	ThornyID  uint   `json:"thorny_id"`
	Type      string `json:"type"`
	Reference string `json:"reference"`
	Mainhand  string `json:"mainhand"`
	Dimension string `json:"dimension"`
	CoordX    int    `json:"coord_x"`
	CoordY    int    `json:"coord_y"`
	CoordZ    int    `json:"coord_z"`
}

type interactionResponse struct {
	Interaction *models.Interaction   `json:"interaction"`
	Result      *progress.EventResult `json:"result,omitempty"`
}

func (s *Server) handleInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	row, result, err := telemetry.RecordInteraction(s.db, telemetry.InteractionOpts{
		ThornyID:  req.ThornyID,
		Type:      req.Type,
		Reference: req.Reference,
		Mainhand:  req.Mainhand,
		Dimension: req.Dimension,
		CoordX:    req.CoordX,
		CoordY:    req.CoordY,
		CoordZ:    req.CoordZ,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.announceResult(c, req.ThornyID, result)
	c.JSON(http.StatusCreated, interactionResponse{Interaction: row, Result: result})
}

type connectionRequest struct {
	ThornyID uint   `json:"thorny_id"`
	Type     string `json:"type"`
}

func (s *Server) handleConnection(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	conn, err := telemetry.RecordConnection(s.db, req.ThornyID, req.Type)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

// announce posts a relay event, never failing the request.
func (s *Server) announce(c *gin.Context, evt relay.Event) {
	s.relay.Announce(c.Request.Context(), evt)
}

// announceResult turns a progress engine outcome into relay announcements.
func (s *Server) announceResult(c *gin.Context, thornyID uint, result *progress.EventResult) {
	if result == nil || result.ProgressID == 0 {
		return
	}
	header, err := progress.Get(s.db, result.ProgressID)
	if err != nil {
		s.logger.Warn("relay lookup failed", zap.Uint("progress_id", result.ProgressID), zap.Error(err))
		return
	}
	username := s.usernameOf(thornyID)
	title := s.questTitleOf(header.QuestID)

	switch {
	case result.QuestFailed:
		s.announce(c, relay.Event{
			Kind: relay.KindQuestFailed, Username: username, QuestName: title,
			Detail: "ran out of time or lives",
		})
	case result.QuestCompleted:
		s.announce(c, relay.Event{
			Kind: relay.KindQuestCompleted, Username: username, QuestName: title,
		})
	case result.ObjectiveCompleted:
		s.announce(c, relay.Event{
			Kind: relay.KindObjectiveCompleted, Username: username, QuestName: title,
			Detail: rewardSummary(result.GrantedRewards),
		})
	}
}

func rewardSummary(rewards []models.Reward) string {
	if len(rewards) == 0 {
		return "no reward"
	}
	if len(rewards) == 1 {
		return "1 reward granted"
	}
	return "rewards granted"
}

// usernameOf resolves a player name for chat, falling back to "a player".
func (s *Server) usernameOf(thornyID uint) string {
	u, err := users.Get(s.db, thornyID)
	if err != nil || u.Username == "" {
		return "a player"
	}
	return u.Username
}

// questTitleOf resolves a quest title for chat.
func (s *Server) questTitleOf(questID uint) string {
	q, err := quest.GetQuest(s.db, questID)
	if err != nil {
		return "a quest"
	}
	return q.Title
}
