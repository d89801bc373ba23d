package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-flowgate/internal/api/dto"
	"go-flowgate/internal/core/ports"
	"go-flowgate/internal/domain"
	"go-flowgate/internal/service"
)

type WorkflowHandler struct {
	service service.WorkflowService
	logger  *slog.Logger
}

func NewWorkflowHandler(svc service.WorkflowService, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{service: svc, logger: logger}
}

// Register mounts the workflow routes on r.
func (h *WorkflowHandler) Register(r gin.IRouter) {
	r.POST("/workflows", h.CreateBlueprint)
	r.GET("/workflows", h.ListBlueprints)
	r.GET("/workflows/:blueprintId", h.GetBlueprint)
	r.POST("/workflows/:blueprintId/instances", h.StartProcess)

	r.GET("/instances", h.ListProcesses)
	r.GET("/instances/:processId", h.GetProcess)
	r.GET("/instances/:processId/actions", h.AvailableActions)
	r.POST("/instances/:processId/actions/:actionId", h.ExecuteAction)
}

func (h *WorkflowHandler) CreateBlueprint(c *gin.Context) {
	var req dto.CreateBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: dto.CodeInvalidRequest})
		return
	}

	bp, err := h.service.CreateBlueprint(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Location", "/workflows/"+bp.ID)
	c.JSON(http.StatusCreated, bp)
}

func (h *WorkflowHandler) ListBlueprints(c *gin.Context) {
	list, err := h.service.ListBlueprints(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WorkflowHandler) GetBlueprint(c *gin.Context) {
	bp, err := h.service.GetBlueprint(c.Request.Context(), c.Param("blueprintId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bp)
}

func (h *WorkflowHandler) StartProcess(c *gin.Context) {
	p, err := h.service.StartProcess(c.Request.Context(), c.Param("blueprintId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Location", "/instances/"+p.ID)
	c.JSON(http.StatusCreated, p)
}

func (h *WorkflowHandler) ListProcesses(c *gin.Context) {
	filter := ports.ProcessFilter{BlueprintID: c.Query("blueprintId")}

	list, err := h.service.ListProcesses(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WorkflowHandler) GetProcess(c *gin.Context) {
	p, err := h.service.GetProcess(c.Request.Context(), c.Param("processId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *WorkflowHandler) AvailableActions(c *gin.Context) {
	p, actions, err := h.service.AvailableActions(c.Request.Context(), c.Param("processId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AvailableActionsResponse{
		ProcessID:      p.ID,
		CurrentStateID: p.CurrentStateID,
		Actions:        actions,
	})
}

func (h *WorkflowHandler) ExecuteAction(c *gin.Context) {
	p, err := h.service.ExecuteAction(c.Request.Context(), c.Param("processId"), c.Param("actionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// fail maps domain errors to 400/404. Infrastructure failures and processes that
// disagree with their stored blueprint are logged and reported as 500.
func (h *WorkflowHandler) fail(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	switch code {
	case "", domain.CodeUndeclaredCurrentState:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	case domain.CodeBlueprintNotFound, domain.CodeProcessNotFound:
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: code})
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: code})
	}
}
