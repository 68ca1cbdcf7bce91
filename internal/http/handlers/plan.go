package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/siproka/siproka-backend/internal/domain"
	domainagg "github.com/siproka/siproka-backend/internal/domain/aggregates"
	"github.com/siproka/siproka-backend/internal/domain/workflow"
	"github.com/siproka/siproka-backend/internal/http/response"
	"github.com/siproka/siproka-backend/internal/platform/logger"
	"github.com/siproka/siproka-backend/internal/services"
)

type PlanHandler struct {
	log      *logger.Logger
	workflow services.WorkflowService
	queries  services.QueryService
}

func NewPlanHandler(log *logger.Logger, workflow services.WorkflowService, queries services.QueryService) *PlanHandler {
	return &PlanHandler{
		log:      log.With("handler", "PlanHandler"),
		workflow: workflow,
		queries:  queries,
	}
}

type submitPlanRequest struct {
	OrgID          string `json:"org_id"`
	Period         string `json:"period" binding:"required"`
	FileRef        string `json:"file_ref" binding:"required"`
	ProposedBudget int64  `json:"proposed_budget" binding:"required"`
	ChangeLog      string `json:"change_log"`
}

func (h *PlanHandler) SubmitPlan(c *gin.Context) {
	var req submitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var orgID uuid.UUID
	if req.OrgID != "" {
		parsed, err := uuid.Parse(req.OrgID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		orgID = parsed
	}

	res, err := h.workflow.SubmitPlan(c.Request.Context(), domainagg.SubmitPlanInput{
		OrgID:          orgID,
		Period:         req.Period,
		FileRef:        req.FileRef,
		ProposedBudget: req.ProposedBudget,
		ChangeLog:      req.ChangeLog,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

type reviewPlanRequest struct {
	Role          string `json:"role" binding:"required"`
	Decision      string `json:"decision" binding:"required"`
	Note          string `json:"note"`
	Amount        *int64 `json:"amount"`
	AttachmentRef string `json:"attachment_ref"`
	ActingRole    string `json:"acting_role"`
}

func (h *PlanHandler) ReviewPlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req reviewPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	res, err := h.workflow.ReviewPlan(c.Request.Context(), workflow.Role(req.ActingRole), domainagg.ReviewPlanInput{
		PlanID:        planID,
		Role:          workflow.Role(req.Role),
		Decision:      workflow.DecisionStatus(req.Decision),
		Note:          req.Note,
		Amount:        req.Amount,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	view, err := h.queries.GetPlan(c.Request.Context(), planID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// FindPlan resolves a plan by (org, period) query parameters.
func (h *PlanHandler) FindPlan(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("org_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	period := c.Query("period")
	if period == "" {
		response.RespondError(c, http.StatusBadRequest, "validation", errors.New("period is required"))
		return
	}
	view, err := h.queries.GetPlanByOrgPeriod(c.Request.Context(), orgID, period)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, view)
}

func (h *PlanHandler) GetPlanLedger(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	snap, err := h.queries.GetPlanLedger(c.Request.Context(), planID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, snap)
}

func (h *PlanHandler) GetPlanHistory(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	entries, err := h.queries.GetHistory(c.Request.Context(), types.DocumentKindPlan, planID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": entries})
}
