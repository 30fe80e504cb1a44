package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/tracker/internal/api/metrics"
	"github.com/taskboard/tracker/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// ProjectHandler serves /projects. Every call is scoped to the caller.
type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// List handles GET /projects.
//
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Project
// @Failure      401  {object}  ErrorBody
// @Router       /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	projects, err := h.service.List(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Create handles POST /projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Replays the first result for repeated keys"
// @Param        body             body      createProjectRequest  true   "Project"
// @Success      201              {object}  domain.Project
// @Failure      400              {object}  ErrorBody
// @Failure      401              {object}  ErrorBody
// @Failure      409              {object}  ErrorBody
// @Router       /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key := c.Request().Header.Get(headerIdempotencyKey)
	if key != "" {
		metrics.IdempotencyKeysTotal.WithLabelValues("project").Inc()
	}
	in, err := toCreateProjectInput(req, id.UserID, key)
	if err != nil {
		return err
	}

	project, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// Get handles GET /projects/:id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  domain.Project
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "invalid project id")
	if err != nil {
		return err
	}
	project, err := h.service.Get(c.Request().Context(), id.UserID, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Update handles PUT /projects/:id. Only fields present in the body change.
//
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Project id"
// @Param        body  body      updateProjectRequest  true  "Fields to change"
// @Success      200   {object}  domain.Project
// @Failure      400   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "invalid project id")
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	patch, err := toProjectPatch(req)
	if err != nil {
		return err
	}

	project, err := h.service.Update(c.Request().Context(), id.UserID, projectID, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /projects/:id and returns the removed project. Its
// tasks are kept without a project.
//
// @Summary      Delete a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  domain.Project
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "invalid project id")
	if err != nil {
		return err
	}
	project, err := h.service.Delete(c.Request().Context(), id.UserID, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Tasks handles GET /projects/:id/tasks.
//
// @Summary      List the tasks of a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {array}   domain.Task
// @Failure      400  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /projects/{id}/tasks [get]
func (h *ProjectHandler) Tasks(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "invalid project id")
	if err != nil {
		return err
	}
	tasks, err := h.service.ListTasks(c.Request().Context(), id.UserID, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}
