package handlers

import (
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

type ProposalHandler struct {
	log      *logger.Logger
	workflow services.WorkflowService
	queries  services.QueryService
}

func NewProposalHandler(log *logger.Logger, workflow services.WorkflowService, queries services.QueryService) *ProposalHandler {
	return &ProposalHandler{
		log:      log.With("handler", "ProposalHandler"),
		workflow: workflow,
		queries:  queries,
	}
}

type slotUploadRequest struct {
	Name    string `json:"name" binding:"required"`
	FileRef string `json:"file_ref" binding:"required"`
}

func toSlotUploads(in []slotUploadRequest) []domainagg.SlotUpload {
	out := make([]domainagg.SlotUpload, 0, len(in))
	for _, d := range in {
		out = append(out, domainagg.SlotUpload{Name: d.Name, FileRef: d.FileRef})
	}
	return out
}

type submitProposalRequest struct {
	DivisionID      string              `json:"division_id" binding:"required"`
	Title           string              `json:"title" binding:"required"`
	RequestedBudget int64               `json:"requested_budget" binding:"required"`
	Documents       []slotUploadRequest `json:"documents" binding:"required"`
}

func (h *ProposalHandler) SubmitProposal(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	divisionID, err := uuid.Parse(req.DivisionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	res, err := h.workflow.SubmitProposal(c.Request.Context(), domainagg.SubmitProposalInput{
		PlanID:          planID,
		DivisionID:      divisionID,
		Title:           req.Title,
		RequestedBudget: req.RequestedBudget,
		Documents:       toSlotUploads(req.Documents),
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *ProposalHandler) ListProposals(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	proposals, err := h.queries.ListProposals(c.Request.Context(), planID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposals": proposals})
}

func (h *ProposalHandler) GetProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	view, err := h.queries.GetProposal(c.Request.Context(), proposalID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, view)
}

type reviewRequest struct {
	Role          string `json:"role" binding:"required"`
	Tier          string `json:"tier" binding:"required"`
	Decision      string `json:"decision" binding:"required"`
	Note          string `json:"note"`
	AttachmentRef string `json:"attachment_ref"`
	ActingRole    string `json:"acting_role"`
}

func (h *ProposalHandler) ReviewProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.workflow.ReviewProposal(c.Request.Context(), workflow.Role(req.ActingRole), domainagg.ReviewProposalInput{
		ProposalID:    proposalID,
		Role:          workflow.Role(req.Role),
		Tier:          workflow.Tier(req.Tier),
		Decision:      workflow.DecisionStatus(req.Decision),
		Note:          req.Note,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type resubmitProposalRequest struct {
	RequestedBudget *int64              `json:"requested_budget"`
	Replacements    []slotUploadRequest `json:"replacements"`
	Note            string              `json:"note"`
}

func (h *ProposalHandler) ResubmitProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req resubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.workflow.ResubmitProposal(c.Request.Context(), domainagg.ResubmitProposalInput{
		ProposalID:      proposalID,
		RequestedBudget: req.RequestedBudget,
		Replacements:    toSlotUploads(req.Replacements),
		Note:            req.Note,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *ProposalHandler) CompleteProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req noteRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.workflow.CompleteProposal(c.Request.Context(), domainagg.CompleteProposalInput{
		ProposalID: proposalID,
		Note:       req.Note,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProposalHandler) WithdrawProposal(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req noteRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.workflow.WithdrawProposal(c.Request.Context(), domainagg.WithdrawProposalInput{
		ProposalID: proposalID,
		Note:       req.Note,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type submitReportRequest struct {
	RealizedBudget int64               `json:"realized_budget" binding:"required"`
	Documents      []slotUploadRequest `json:"documents" binding:"required"`
}

func (h *ProposalHandler) SubmitReport(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.workflow.SubmitReport(c.Request.Context(), domainagg.SubmitReportInput{
		ProposalID:     proposalID,
		RealizedBudget: req.RealizedBudget,
		Documents:      toSlotUploads(req.Documents),
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

func (h *ProposalHandler) ReviewReport(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.workflow.ReviewReport(c.Request.Context(), workflow.Role(req.ActingRole), domainagg.ReviewReportInput{
		ProposalID:    proposalID,
		Role:          workflow.Role(req.Role),
		Tier:          workflow.Tier(req.Tier),
		Decision:      workflow.DecisionStatus(req.Decision),
		Note:          req.Note,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type resubmitReportRequest struct {
	RealizedBudget *int64              `json:"realized_budget"`
	Replacements   []slotUploadRequest `json:"replacements"`
	Note           string              `json:"note"`
}

func (h *ProposalHandler) ResubmitReport(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req resubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	res, err := h.workflow.ResubmitReport(c.Request.Context(), domainagg.ResubmitReportInput{
		ProposalID:     proposalID,
		RealizedBudget: req.RealizedBudget,
		Replacements:   toSlotUploads(req.Replacements),
		Note:           req.Note,
	})
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProposalHandler) GetProposalHistory(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	entries, err := h.queries.GetHistory(c.Request.Context(), types.DocumentKindProposal, proposalID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": entries})
}

type commentRequest struct {
	Role string `json:"role"`
	Body string `json:"body" binding:"required"`
}

func (h *ProposalHandler) AddComment(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	comment, err := h.queries.AddComment(c.Request.Context(), proposalID, workflow.Role(req.Role), req.Body)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"comment": comment})
}

func (h *ProposalHandler) ListComments(c *gin.Context) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	comments, err := h.queries.ListComments(c.Request.Context(), proposalID)
	if err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

func (h *ProposalHandler) DeleteComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := h.queries.DeleteComment(c.Request.Context(), commentID); err != nil {
		response.RespondWorkflowError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}
