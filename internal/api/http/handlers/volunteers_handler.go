package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/careclinic/volunteer-desk/internal/api/dto"
	"github.com/careclinic/volunteer-desk/internal/auth"
	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/service"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

// VolunteersHandler exposes account and directory endpoints.
type VolunteersHandler struct {
	auth      *service.AuthService
	directory *service.DirectoryService
}

// NewVolunteersHandler constructs handler.
func NewVolunteersHandler(authService *service.AuthService, directory *service.DirectoryService) *VolunteersHandler {
	return &VolunteersHandler{auth: authService, directory: directory}
}

// Register handles POST /auth/volunteers/register.
func (h *VolunteersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	volunteer, token, exp, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"volunteer": volunteerResponse(volunteer),
			"auth":      dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/volunteers/login.
func (h *VolunteersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	volunteer, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"volunteer": volunteerResponse(volunteer),
			"auth":      dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// List handles GET /volunteers for assignment pickers.
func (h *VolunteersHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 100)
	volunteers, err := h.directory.ListVolunteers(c.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.VolunteerResponse, 0, len(volunteers))
	for i := range volunteers {
		items = append(items, volunteerResponse(&volunteers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateRole handles PATCH /volunteers/:id/role. Admin only; the route guard
// enforces the role check.
func (h *VolunteersHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	volunteer, err := h.directory.SetRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": volunteerResponse(volunteer)})
}

func volunteerResponse(v *domain.Volunteer) dto.VolunteerResponse {
	return dto.VolunteerResponse{
		ID:    v.ID,
		Name:  v.Name,
		Email: v.Email,
		Role:  v.Role,
	}
}
