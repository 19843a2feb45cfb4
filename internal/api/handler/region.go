package handler

import (
	"net/http"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// RegionHandler handles region-related requests
type RegionHandler struct {
	regions *service.RegionService
	log     logrus.FieldLogger
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(regions *service.RegionService, log logrus.FieldLogger) *RegionHandler {
	return &RegionHandler{regions: regions, log: log}
}

func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	regions, err := h.regions.List(r.Context(), middleware.UserFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, regions)
}

func (h *RegionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	region, err := h.regions.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, region)
}

func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RegionRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	region, err := h.regions.Create(r.Context(), middleware.UserFrom(r.Context()), req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusCreated, region)
}

func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	var req models.RegionRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	region, err := h.regions.Update(r.Context(), middleware.UserFrom(r.Context()), id, req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, region)
}

func (h *RegionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	if err := h.regions.Delete(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
