package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/importer"
	"github.com/spec-kit/crm-service/internal/service"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

const defaultPageSize = 20

// LeadsHandler exposes the lead listing and workflow endpoints.
type LeadsHandler struct {
	leads          *service.LeadService
	queries        *service.LeadQueryService
	assignments    *service.AssignmentService
	imports        *service.ImportService
	validator      *Validator
	importMaxBytes int64
}

// LeadsHandlerDeps bundles the handler's collaborators.
type LeadsHandlerDeps struct {
	Leads          *service.LeadService
	Queries        *service.LeadQueryService
	Assignments    *service.AssignmentService
	Imports        *service.ImportService
	Validator      *Validator
	ImportMaxBytes int64
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(deps LeadsHandlerDeps) *LeadsHandler {
	return &LeadsHandler{
		leads:          deps.Leads,
		queries:        deps.Queries,
		assignments:    deps.Assignments,
		imports:        deps.Imports,
		validator:      deps.Validator,
		importMaxBytes: deps.ImportMaxBytes,
	}
}

// List handles GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}
	filters := service.LeadFilters{
		Source:     domain.LeadSource(strings.TrimSpace(c.Query("source"))),
		Region:     c.Query("region"),
		Status:     domain.LeadStatus(strings.TrimSpace(c.Query("status"))),
		AssignedTo: c.Query("assignedTo"),
		Search:     c.Query("search"),
	}

	result, err := h.queries.QueryLeads(c.UserContext(), principal, filters, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.LeadListResponse{
		Leads: dto.NewLeadResponses(result.Items),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.PageSize,
	})
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	principal, id, err := principalAndLeadID(c)
	if err != nil {
		return err
	}
	lead, err := h.leads.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLeadResponse(lead))
}

// Create handles POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateLeadRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}

	lead, err := h.leads.Create(c.UserContext(), principal, service.LeadInput{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Source:          domain.LeadSource(req.Source),
		Region:          req.Region,
		Product:         req.Product,
		Content:         req.Content,
		Status:          domain.LeadStatus(req.Status),
		Value:           req.Value,
		AssignedTo:      req.AssignedTo,
		Tags:            req.Tags,
		LastContactedAt: req.LastContactedAt,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewLeadResponse(lead))
}

// Update handles PUT /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	principal, id, err := principalAndLeadID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateLeadRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}

	patch := service.LeadPatch{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Region:          req.Region,
		Product:         req.Product,
		Content:         req.Content,
		Value:           req.Value,
		Tags:            req.Tags,
		LastContactedAt: req.LastContactedAt,
	}
	if req.Source != nil {
		source := domain.LeadSource(*req.Source)
		patch.Source = &source
	}
	if req.Status != nil {
		status := domain.LeadStatus(*req.Status)
		patch.Status = &status
	}

	lead, err := h.leads.Update(c.UserContext(), principal, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLeadResponse(lead))
}

// Delete handles DELETE /leads/:id.
func (h *LeadsHandler) Delete(c *fiber.Ctx) error {
	principal, id, err := principalAndLeadID(c)
	if err != nil {
		return err
	}
	if err := h.leads.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Assign handles POST /leads/assign.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignLeadsRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.assignments.Assign(c.UserContext(), principal, req.LeadIDs, req.UserID)
	if err != nil {
		return err
	}
	failed := make([]dto.AssignFailure, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, dto.AssignFailure{LeadID: f.LeadID, Code: f.Code, Message: f.Message})
	}
	return c.JSON(dto.AssignLeadsResponse{Assigned: result.Assigned, Failed: failed})
}

// ChangeStage handles PUT /leads/:id/stage.
func (h *LeadsHandler) ChangeStage(c *fiber.Ctx) error {
	principal, id, err := principalAndLeadID(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStageRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}

	lead, err := h.leads.ChangeStage(c.UserContext(), principal, id, domain.LeadStage(strings.TrimSpace(req.Stage)))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLeadResponse(lead))
}

// Timeline handles GET /leads/:id/timeline.
func (h *LeadsHandler) Timeline(c *fiber.Ctx) error {
	principal, id, err := principalAndLeadID(c)
	if err != nil {
		return err
	}
	entries, err := h.leads.Timeline(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	out := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.NewActivityResponse(entry))
	}
	return c.JSON(fiber.Map{"activities": out})
}

// Import handles POST /leads/import with a multipart "file" field.
func (h *LeadsHandler) Import(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewInvalidArgument("multipart field \"file\" is required", nil)
	}
	if h.importMaxBytes > 0 && header.Size > h.importMaxBytes {
		return apperrors.NewInvalidArgument("file is too large",
			map[string]any{"size": header.Size, "max_bytes": h.importMaxBytes})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInvalidArgument("unreadable upload", nil)
	}
	defer file.Close()

	rows, err := importer.Parse(header.Filename, file)
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error(), map[string]any{"file": header.Filename})
	}

	result, err := h.imports.Import(c.UserContext(), principal, rows)
	if err != nil {
		return err
	}
	resp := dto.ImportLeadsResponse{
		Message: fmt.Sprintf("imported %d of %d rows", len(result.Leads), len(rows)),
		Leads:   dto.NewLeadResponses(result.Leads),
	}
	for _, rowErr := range result.Errors {
		resp.Errors = append(resp.Errors, dto.ImportRowError{Row: rowErr.Line, Code: rowErr.Code, Message: rowErr.Message})
	}
	return c.JSON(resp)
}

func principalAndLeadID(c *fiber.Ctx) (domain.Principal, int64, error) {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return domain.Principal{}, 0, err
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, 0, apperrors.NewInvalidArgument("lead id must be a positive integer",
			map[string]any{"id": c.Params("id")})
	}
	return principal, id, nil
}

// queryInt reads an integer query parameter, using def only when it is absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidArgument(key+" must be an integer", map[string]any{key: raw})
	}
	return value, nil
}
