// README: Assignment handlers: provider decisions on proposals.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aidlink/internal/modules/assignment"
	"aidlink/internal/types"
)

type AssignmentHandler struct {
	assignments *assignment.Service
}

func NewAssignmentHandler(assignments *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

func (h *AssignmentHandler) ListByTicket(c *gin.Context) {
	list, err := h.assignments.ListByTicket(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

type decisionReq struct {
	ProviderID string `json:"provider_id"`
}

func (h *AssignmentHandler) Accept(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.assignments.Accept(c.Request.Context(), assignment.AcceptCommand{
		AssignmentID: types.ID(c.Param("id")),
		ActorID:      types.ID(req.ProviderID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": assignment.StatusAccepted})
}

func (h *AssignmentHandler) Reject(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.assignments.Reject(c.Request.Context(), assignment.RejectCommand{
		AssignmentID: types.ID(c.Param("id")),
		ActorID:      types.ID(req.ProviderID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": assignment.StatusRejected})
}

func (h *AssignmentHandler) Complete(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.assignments.Complete(c.Request.Context(), assignment.CompleteCommand{
		AssignmentID: types.ID(c.Param("id")),
		ActorID:      types.ID(req.ProviderID),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": assignment.StatusCompleted})
}
