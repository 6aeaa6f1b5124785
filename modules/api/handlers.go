package api

import (
	domain "github.com/example/team-tasks/domain/task"
	"github.com/example/team-tasks/modules/task"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	api := m.app.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.Post("/", m.createTask)
	tasks.Get("/", m.listTasks)
	tasks.Get("/:id", m.getTask)
	tasks.Put("/:id", m.updateTask)
	tasks.Patch("/:id/approval", m.resolveApproval)
	tasks.Get("/:id/activity", m.taskActivity)

	api.Get("/activity", m.allActivity)
	api.Get("/employees", m.listEmployees)
	api.Get("/dashboard/summary", m.dashboardSummary)
	api.Get("/notifications", m.listNotifications)
	api.Post("/notifications/mark-read", m.markNotificationsRead)
	api.Post("/daily-summary", m.runDailySummary)
}

// statusForKind maps a service error kind to an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case task.KindNotFound:
		return fiber.StatusNotFound
	case task.KindForbidden:
		return fiber.StatusForbidden
	case task.KindInvalidRequest:
		return fiber.StatusBadRequest
	case task.KindInvalidState:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func serviceError(c *fiber.Ctx, e *task.ServiceError) error {
	return c.Status(statusForKind(e.Kind)).JSON(ErrorResponse{
		Error:   e.Kind,
		Message: e.Message,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "store_error",
		Message: err.Error(),
	})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: map[string]any{"module": "api", "addr": m.addr},
	})
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskPort.CreateTask(c.Context(), &req)
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": resp.Task})
}

// listTasks handles GET /api/v1/tasks. The viewer query parameter
// applies the visibility filter; omitting it returns everything.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	viewer := c.Query("viewer", "")
	resp, err := m.taskPort.ListTasks(c.Context(), viewer)
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.JSON(fiber.Map{"tasks": resp.Tasks, "total": resp.Total})
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	resp, err := m.taskPort.GetTask(c.Context(), c.Params("id"))
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.JSON(fiber.Map{"task": resp.Task})
}

// updateTaskBody is the PUT /api/v1/tasks/:id payload.
type updateTaskBody struct {
	RequesterEmail string         `json:"requester_email"`
	Updates        domain.Updates `json:"updates"`
}

// updateTask handles PUT /api/v1/tasks/:id.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	var body updateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskPort.UpdateTask(c.Context(), &task.UpdateTaskRequest{
		TaskID:         c.Params("id"),
		RequesterEmail: body.RequesterEmail,
		Updates:        body.Updates,
	})
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	if resp.Deleted {
		return c.JSON(fiber.Map{"deleted": true})
	}
	if resp.Pending {
		return c.JSON(fiber.Map{"pending": true})
	}
	return c.JSON(fiber.Map{"task": resp.Task})
}

// approvalBody is the PATCH /api/v1/tasks/:id/approval payload.
type approvalBody struct {
	Approve      bool   `json:"approve"`
	ManagerEmail string `json:"manager_email"`
}

// resolveApproval handles PATCH /api/v1/tasks/:id/approval.
func (m *APIModule) resolveApproval(c *fiber.Ctx) error {
	var body approvalBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	resp, err := m.taskPort.ResolveApproval(c.Context(), &task.ResolveApprovalRequest{
		TaskID:       c.Params("id"),
		ManagerEmail: body.ManagerEmail,
		Approve:      body.Approve,
	})
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	if resp.Deleted {
		return c.JSON(fiber.Map{"deleted": true})
	}
	return c.JSON(fiber.Map{
		"approved": resp.Approved,
		"rejected": resp.Rejected,
		"task":     resp.Task,
	})
}

// taskActivity handles GET /api/v1/tasks/:id/activity.
func (m *APIModule) taskActivity(c *fiber.Ctx) error {
	resp, err := m.taskPort.ListActivity(c.Context(), c.Params("id"))
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.JSON(fiber.Map{"activity": resp.Activity})
}

// allActivity handles GET /api/v1/activity: the flattened feed.
func (m *APIModule) allActivity(c *fiber.Ctx) error {
	resp, err := m.taskPort.ListActivity(c.Context(), "")
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.JSON(fiber.Map{"rows": resp.Rows})
}

// listEmployees handles GET /api/v1/employees.
func (m *APIModule) listEmployees(c *fiber.Ctx) error {
	employees, err := m.employeePort.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"employees": employees})
}

// dashboardSummary handles GET /api/v1/dashboard/summary.
func (m *APIModule) dashboardSummary(c *fiber.Ctx) error {
	resp, err := m.taskPort.DashboardSummary(c.Context(), c.Query("viewer", ""))
	if err != nil {
		return internalError(c, err)
	}
	if resp.Err != nil {
		return serviceError(c, resp.Err)
	}
	return c.JSON(resp)
}

// listNotifications handles GET /api/v1/notifications?user=email.
func (m *APIModule) listNotifications(c *fiber.Ctx) error {
	user := c.Query("user", "")
	if user == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing user param",
		})
	}
	notifications, err := m.notificationPort.List(c.Context(), user)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// markNotificationsRead handles POST /api/v1/notifications/mark-read.
func (m *APIModule) markNotificationsRead(c *fiber.Ctx) error {
	var body MarkReadRequest
	if err := c.BodyParser(&body); err != nil || body.UserEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing user_email",
		})
	}
	updated, err := m.notificationPort.MarkAllRead(c.Context(), body.UserEmail)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// runDailySummary handles POST /api/v1/daily-summary: the scheduler's
// external trigger.
func (m *APIModule) runDailySummary(c *fiber.Ctx) error {
	resp, err := m.digestPort.Run(c.Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(resp)
}
