// README: Provider handlers: registration and location updates.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aidlink/internal/modules/provider"
	"aidlink/internal/types"
)

type ProviderHandler struct {
	providers *provider.Service
}

func NewProviderHandler(providers *provider.Service) *ProviderHandler {
	return &ProviderHandler{providers: providers}
}

type registerProviderReq struct {
	Name            string            `json:"name"`
	Lat             float64           `json:"lat"`
	Lng             float64           `json:"lng"`
	ServiceRadiusKm *float64          `json:"service_radius_km"`
	Availability    string            `json:"availability"`
	Categories      []string          `json:"categories"`
	Capacity        provider.Capacity `json:"capacity"`
	RegistrationID  string            `json:"registration_id"`
	ContactPhone    string            `json:"contact_phone"`
}

func (h *ProviderHandler) Register(c *gin.Context) {
	var req registerProviderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.providers.Register(c.Request.Context(), provider.RegisterCommand{
		Name:            req.Name,
		Lat:             req.Lat,
		Lng:             req.Lng,
		ServiceRadiusKm: req.ServiceRadiusKm,
		Availability:    req.Availability,
		Categories:      req.Categories,
		Capacity:        req.Capacity,
		RegistrationID:  req.RegistrationID,
		ContactPhone:    req.ContactPhone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "name": p.Name})
}

func (h *ProviderHandler) Get(c *gin.Context) {
	p, err := h.providers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *ProviderHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.providers.UpdateLocation(c.Request.Context(), types.ID(c.Param("id")), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
