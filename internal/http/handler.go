package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-service/internal/http/middleware"
	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/service"
)

type Handler struct {
	assignmentService *service.AssignmentService
	fuelService       *service.FuelService
	reportService     *service.ReportService
	incidentService   *service.IncidentService
	log               zerolog.Logger
}

func NewHandler(
	assignmentService *service.AssignmentService,
	fuelService *service.FuelService,
	reportService *service.ReportService,
	incidentService *service.IncidentService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		assignmentService: assignmentService,
		fuelService:       fuelService,
		reportService:     reportService,
		incidentService:   incidentService,
		log:               log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	manager := protected.Group("/manager")
	{
		manager.POST("/assignments", h.createAssignment)
		manager.GET("/assignments", h.listAssignments)
		manager.GET("/assignments/:id", h.getAssignment)
		manager.PATCH("/assignments/:id", h.updateAssignment)
		manager.PUT("/assignments/:id/close", h.closeAssignment)
		manager.DELETE("/assignments/:id", h.deleteAssignment)
		manager.GET("/available/resources", h.listAvailableResources)
		manager.GET("/available/operators", h.listAvailableOperators)

		manager.POST("/fuel/replenishments", h.recordReplenishment)
		manager.POST("/fuel/consumptions", h.recordConsumption)
		manager.GET("/fuel/stock", h.getCurrentStock)
		manager.GET("/fuel/totals", h.getPeriodTotals)
		manager.GET("/fuel/history", h.getFuelHistory)

		manager.GET("/daily-reports", h.listDailyReports)

		manager.POST("/incidents", h.reportIncident)
		manager.GET("/incidents", h.listIncidents)
		manager.GET("/incidents/:id", h.getIncident)
		manager.PUT("/incidents/:id/status", h.updateIncidentStatus)
	}

	driver := protected.Group("/driver")
	{
		driver.GET("/assignments", h.listAssignments)
		driver.POST("/fuel/consumptions", h.recordConsumption)

		driver.GET("/daily-reports/check", h.checkDailyReport)
		driver.POST("/daily-reports", h.submitDailyReport)

		driver.POST("/incidents", h.reportIncident)
		driver.GET("/incidents", h.listIncidents)
		driver.GET("/incidents/:id", h.getIncident)
	}
}

func (h *Handler) createAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		ResourceID string `json:"resource_id" binding:"required"`
		OperatorID string `json:"operator_id" binding:"required"`
		Site       string `json:"site" binding:"required"`
		StartDate  string `json:"start_date" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	assignment, err := h.assignmentService.Create(c.Request.Context(), principal, service.CreateAssignmentInput{
		ResourceID: req.ResourceID,
		OperatorID: req.OperatorID,
		Site:       req.Site,
		StartDate:  req.StartDate,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(assignment))
}

func (h *Handler) listAssignments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := repository.AssignmentListFilter{}

	if raw := strings.TrimSpace(c.Query("resource_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			filter.ResourceID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("operator_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			filter.OperatorID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	assignments, err := h.assignmentService.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignments))
}

func (h *Handler) getAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	assignment, err := h.assignmentService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) updateAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Site      *string `json:"site"`
		StartDate *string `json:"start_date"`
		EndDate   *string `json:"end_date"`
		IsActive  *bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	assignment, err := h.assignmentService.Update(c.Request.Context(), principal, c.Param("id"), service.UpdateAssignmentInput{
		Site:      req.Site,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) closeAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		EndDate string `json:"end_date" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	assignment, err := h.assignmentService.Close(c.Request.Context(), principal, c.Param("id"), req.EndDate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(assignment))
}

func (h *Handler) deleteAssignment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	if err := h.assignmentService.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listAvailableResources(c *gin.Context) {
	kind := model.ResourceKind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))

	resources, err := h.assignmentService.ListAvailableResources(c.Request.Context(), kind)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(resources))
}

func (h *Handler) listAvailableOperators(c *gin.Context) {
	operators, err := h.assignmentService.ListAvailableOperators(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(operators))
}

func (h *Handler) recordReplenishment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Quantity float64 `json:"quantity" binding:"required"`
		Date     string  `json:"date" binding:"required"`
		Note     *string `json:"note"`
		IssuedBy string  `json:"issued_by" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	event, err := h.fuelService.RecordReplenishment(c.Request.Context(), principal, service.RecordReplenishmentInput{
		Quantity: req.Quantity,
		Date:     req.Date,
		Note:     req.Note,
		IssuedBy: req.IssuedBy,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(event))
}

func (h *Handler) recordConsumption(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		ResourceID string  `json:"resource_id" binding:"required"`
		Quantity   float64 `json:"quantity" binding:"required"`
		Date       string  `json:"date" binding:"required"`
		OperatorID *string `json:"operator_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	event, err := h.fuelService.RecordConsumption(c.Request.Context(), principal, service.RecordConsumptionInput{
		ResourceID: req.ResourceID,
		Quantity:   req.Quantity,
		Date:       req.Date,
		OperatorID: req.OperatorID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(event))
}

func (h *Handler) getCurrentStock(c *gin.Context) {
	stock, err := h.fuelService.CurrentStock(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"stock": stock}))
}

func (h *Handler) getPeriodTotals(c *gin.Context) {
	totals, err := h.fuelService.PeriodTotals(c.Request.Context(), c.Query("period"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(totals))
}

func (h *Handler) getFuelHistory(c *gin.Context) {
	seq, err := h.fuelService.History(c.Request.Context(), service.HistoryInput{
		Search:    c.Query("search"),
		EventType: c.Query("event_type"),
		Period:    c.Query("period"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Drain the cursor before writing anything so a mid-stream failure can
	// still produce a clean error response.
	events := make([]model.FuelEvent, 0)
	for event, err := range seq {
		if err != nil {
			h.handleError(c, err)
			return
		}
		events = append(events, event)
	}

	c.JSON(http.StatusOK, successResponse(events))
}

func (h *Handler) checkDailyReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	operatorID := strings.TrimSpace(c.Query("operator_id"))
	if operatorID == "" && principal.OperatorID != nil {
		operatorID = principal.OperatorID.String()
	}

	submitted, err := h.reportService.CheckSubmitted(c.Request.Context(), principal, operatorID, c.Query("date"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"submitted": submitted}))
}

func (h *Handler) submitDailyReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		OperatorID      string  `json:"operator_id"`
		ResourceID      string  `json:"resource_id" binding:"required"`
		RemainingLiters float64 `json:"remaining_liters"`
		ImageRef        string  `json:"image_ref" binding:"required"`
		Date            string  `json:"date" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if req.OperatorID == "" && principal.OperatorID != nil {
		req.OperatorID = principal.OperatorID.String()
	}

	report, err := h.reportService.Submit(c.Request.Context(), principal, service.SubmitReportInput{
		OperatorID:      req.OperatorID,
		ResourceID:      req.ResourceID,
		RemainingLiters: req.RemainingLiters,
		ImageRef:        req.ImageRef,
		Date:            req.Date,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(report))
}

func (h *Handler) listDailyReports(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := repository.DailyReportListFilter{}

	if raw := strings.TrimSpace(c.Query("operator_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			filter.OperatorID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("resource_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			filter.ResourceID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, err := parseTime(raw)
		if err == nil {
			filter.From = &t
		}
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, err := parseTime(raw)
		if err == nil {
			filter.To = &t
		}
	}

	reports, err := h.reportService.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(reports))
}

func (h *Handler) reportIncident(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		ResourceID   string  `json:"resource_id"`
		Title        string  `json:"title" binding:"required"`
		Description  string  `json:"description"`
		Severity     string  `json:"severity" binding:"required"`
		Cause        string  `json:"cause"`
		ActionsTaken string  `json:"actions_taken"`
		EtaLabel     string  `json:"eta_label"`
		PhotoRef     *string `json:"photo_ref"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	incident, err := h.incidentService.Report(c.Request.Context(), principal, service.ReportIncidentInput{
		ResourceID:   req.ResourceID,
		Title:        req.Title,
		Description:  req.Description,
		Severity:     req.Severity,
		Cause:        req.Cause,
		ActionsTaken: req.ActionsTaken,
		EtaLabel:     req.EtaLabel,
		PhotoRef:     req.PhotoRef,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(incident))
}

func (h *Handler) listIncidents(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := repository.IncidentListFilter{}

	if raw := strings.TrimSpace(c.Query("resource_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			filter.ResourceID = &id
		}
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.IncidentStatus(strings.ToUpper(raw))
		filter.Status = &status
	}

	incidents, err := h.incidentService.List(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(incidents))
}

func (h *Handler) getIncident(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	incident, err := h.incidentService.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(incident))
}

func (h *Handler) updateIncidentStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	incident, err := h.incidentService.UpdateStatus(c.Request.Context(), principal, c.Param("id"), req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(incident))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
