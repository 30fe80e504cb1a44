package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/tracker/internal/api/metrics"
	"github.com/taskboard/tracker/internal/core/ports"
)

type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// List handles GET /tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Task
// @Failure      401  {object}  ErrorBody
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	tasks, err := h.service.List(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create handles POST /tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays the first result for repeated keys"
// @Param        body             body      createTaskRequest  true   "Task"
// @Success      201              {object}  domain.Task
// @Failure      400              {object}  ErrorBody
// @Failure      401              {object}  ErrorBody
// @Failure      409              {object}  ErrorBody
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := c.Request().Header.Get(headerIdempotencyKey)
	if key != "" {
		metrics.IdempotencyKeysTotal.WithLabelValues("task").Inc()
	}
	in, err := toCreateTaskInput(req, id.UserID, key)
	if err != nil {
		return err
	}

	task, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Get handles GET /tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "invalid task id")
	if err != nil {
		return err
	}
	task, err := h.service.Get(c.Request().Context(), id.UserID, taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update handles PUT /tasks/:id. "project_id": null unassigns the task.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "invalid task id")
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch, err := toTaskPatch(req)
	if err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), id.UserID, taskID, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /tasks/:id.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := pathID(c, "invalid task id")
	if err != nil {
		return err
	}
	task, err := h.service.Delete(c.Request().Context(), id.UserID, taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}
