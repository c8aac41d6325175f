// README: Ticket handlers: intake, reads, matching, and combination search.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aidlink/internal/modules/assignment"
	"aidlink/internal/modules/matching"
	"aidlink/internal/modules/ticket"
	"aidlink/internal/types"
)

type TicketHandler struct {
	tickets     *ticket.Service
	matching    *matching.Service
	assignments *assignment.Service
}

func NewTicketHandler(tickets *ticket.Service, matchingSvc *matching.Service, assignments *assignment.Service) *TicketHandler {
	return &TicketHandler{tickets: tickets, matching: matchingSvc, assignments: assignments}
}

type createTicketReq struct {
	RequesterID string         `json:"requester_id"`
	Description string         `json:"description"`
	Lat         *float64       `json:"lat"`
	Lng         *float64       `json:"lng"`
	Categories  []string       `json:"categories"`
	Quantities  map[string]int `json:"quantities"`
	Adults      int            `json:"adults"`
	Children    int            `json:"children"`
	Elderly     int            `json:"elderly"`
	SOS         bool           `json:"sos"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cmd := ticket.CreateCommand{
		RequesterID: req.RequesterID,
		Description: req.Description,
		Categories:  req.Categories,
		Quantities:  req.Quantities,
		Headcount:   ticket.Headcount{Adults: req.Adults, Children: req.Children, Elderly: req.Elderly},
		SOS:         req.SOS,
	}
	if req.Lat != nil && req.Lng != nil {
		cmd.Location = &types.Point{Lat: *req.Lat, Lng: *req.Lng}
	}
	t, err := h.tickets.Create(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticketResponse(t))
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.tickets.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticketResponse(t))
}

func (h *TicketHandler) History(c *gin.Context) {
	entries, err := h.tickets.History(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.tickets.UpdateStatus(c.Request.Context(), ticket.UpdateStatusCommand{
		TicketID: types.ID(c.Param("id")),
		To:       ticket.Status(req.Status),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// Matches returns the ranked candidate list for a ticket. Providers that
// already have an assignment record for the ticket are excluded.
func (h *TicketHandler) Matches(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.tickets.Get(ctx, types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	decided, err := h.assignments.DecidedProviderIDs(ctx, t.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	opts := matching.Options{ExcludeProviderIDs: decided}
	if v := c.Query("max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.MaxResults = n
		}
	}
	if v := c.Query("avg_speed_kmph"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			opts.AvgSpeedKmph = f
		}
	}
	candidates, err := h.matching.MatchTicket(ctx, t, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": t.ID, "candidates": candidates})
}

// Combinations returns the capacity-covering provider groups for a ticket.
// An empty list means no actionable match yet, not a fault.
func (h *TicketHandler) Combinations(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.tickets.Get(ctx, types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	decided, err := h.assignments.DecidedProviderIDs(ctx, t.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	groups, err := h.matching.FindCombinations(ctx, t, matching.Options{ExcludeProviderIDs: decided})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_id": t.ID, "groups": groups})
}

func ticketResponse(t *ticket.Ticket) gin.H {
	resp := gin.H{
		"id":         t.ID,
		"reference":  t.Reference,
		"status":     t.Status,
		"categories": t.Categories,
		"quantities": t.Quantities,
		"sos":        t.SOS,
		"created_at": t.CreatedAt,
	}
	if t.Location != nil {
		resp["location"] = t.Location
	}
	if t.AssignedProviderID != nil {
		resp["assigned_provider_id"] = t.AssignedProviderID
	}
	return resp
}
