package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/careclinic/volunteer-desk/internal/api/dto"
	"github.com/careclinic/volunteer-desk/internal/auth"
	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/lifecycle"
	"github.com/careclinic/volunteer-desk/internal/service"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal.Volunteer, lifecycle.CreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListTickets(c.Context(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Board GET /tickets/board groups tickets into status columns.
func (h *TicketsHandler) Board(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	board, err := h.service.Board(c.Context(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BoardResponse{
		Open:       summaries(board[domain.TicketStatusOpen]),
		InProgress: summaries(board[domain.TicketStatusInProgress]),
		Closed:     summaries(board[domain.TicketStatusClosed]),
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

// ChangeStatus PATCH /tickets/:id/status. The board's drag-and-drop uses this
// same endpoint; there is no separate write path.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.Context(), principal.Actor(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

// ChangePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangePriority(c.Context(), principal.Actor(), c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Assign(c.Context(), principal.Actor(), c.Params("id"), req.VolunteerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddNote(c.Context(), principal.Actor(), c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, principal.Volunteer.Role)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if submitter := c.Query("submitted_by"); submitter != "" {
		filter.SubmittedBy = &submitter
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func summaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:             ticket.ID,
		Subject:        ticket.Subject,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		SubmittedBy:    ticket.SubmittedBy,
		SubmitterName:  ticket.SubmitterName,
		AssignedTo:     ticket.AssignedTo,
		AssignedToName: ticket.AssignedToName,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, viewerMode domain.VolunteerRole) dto.TicketDetailResponse {
	visible := lifecycle.VisibleNotes(ticket, viewerMode)
	notes := make([]dto.NoteResponse, 0, len(visible))
	for _, note := range visible {
		notes = append(notes, dto.NoteResponse{
			ID:         note.ID,
			AuthorID:   note.AuthorID,
			AuthorName: note.AuthorName,
			Content:    note.Content,
			IsInternal: note.IsInternal,
			CreatedAt:  note.CreatedAt,
		})
	}
	activity := make([]dto.ActivityResponse, 0, len(ticket.Activity))
	for _, record := range ticket.Activity {
		activity = append(activity, dto.ActivityResponse{
			ID:              record.ID,
			Type:            record.Type,
			Description:     record.Description,
			PerformedBy:     record.PerformedBy,
			PerformedByName: record.PerformedByName,
			OldValue:        record.OldValue,
			NewValue:        record.NewValue,
			Timestamp:       record.Timestamp,
		})
	}
	return dto.TicketDetailResponse{
		ID:             ticket.ID,
		Subject:        ticket.Subject,
		Description:    ticket.Description,
		Category:       ticket.Category,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		SubmittedBy:    ticket.SubmittedBy,
		SubmitterName:  ticket.SubmitterName,
		SubmitterEmail: ticket.SubmitterEmail,
		AssignedTo:     ticket.AssignedTo,
		AssignedToName: ticket.AssignedToName,
		Version:        ticket.Version,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ClosedAt:       ticket.ClosedAt,
		Notes:          notes,
		Activity:       activity,
	}
}
