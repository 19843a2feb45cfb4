package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EmployeeHandler handles employee-related requests
type EmployeeHandler struct {
	employees *service.EmployeeService
	log       logrus.FieldLogger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(employees *service.EmployeeService, log logrus.FieldLogger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, log: log}
}

// List searches employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := employeeFilter(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	employees, err := h.employees.Search(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, employees)
}

// Get returns one employee
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	employee, err := h.employees.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, employee)
}

// Create adds an employee with generated credentials
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	employee, err := h.employees.Create(r.Context(), middleware.UserFrom(r.Context()), req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusCreated, employee)
}

// Update rewrites an employee
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	var req models.EmployeeRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	employee, err := h.employees.Update(r.Context(), middleware.UserFrom(r.Context()), id, req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, employee)
}

// SetStatus blocks or unblocks an employee
func (h *EmployeeHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	var req models.EmployeeStatusRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	employee, err := h.employees.SetStatus(r.Context(), middleware.UserFrom(r.Context()), id, req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, employee)
}

// Delete removes an employee
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	if err := h.employees.Delete(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// BulkDelete removes several employees at once
func (h *EmployeeHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req models.BulkDeleteRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	deleted, err := h.employees.BulkDelete(r.Context(), middleware.UserFrom(r.Context()), req.IDs)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, bulkDeleteResponse{Deleted: len(deleted)})
}

// Export streams the matching employees as an xlsx workbook
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := employeeFilter(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	// buffered so a failure can still produce a JSON error
	var buf bytes.Buffer
	if _, err := h.employees.Export(r.Context(), middleware.UserFrom(r.Context()), filter, &buf); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	filename := fmt.Sprintf("employees_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
