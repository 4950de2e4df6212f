package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/apperr"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/dto"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/middleware"
	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/services"
)

const requestTimeout = 5 * time.Second

func errorJSON(c *fiber.Ctx, err error) error {
	code := apperr.StatusCode(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		msg = "Server error"
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}

// CreateOpportunity godoc
// @Summary      Create a job opportunity
// @Description  Admin-only. Creates a new job posting with status defaulting to Open.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body   dto.CreateOpportunityRequest  true  "Opportunity fields"
// @Success      201   {object} models.JobItem
// @Failure      400   {object} map[string]string
// @Failure      403   {object} map[string]string
// @Router       /jobs/opportunity [post]
func CreateOpportunity(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		var req dto.CreateOpportunityRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		item, err := svc.CreateOpportunity(ctx, p, req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// ApplyToOpportunity godoc
// @Summary      Apply to a job opportunity
// @Description  Creates the caller's application against an open posting. One application per user per posting.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path   string            true  "Posting ID (hex ObjectID)"
// @Param        body  body   dto.ApplyRequest  true  "Application notes"
// @Success      201   {object} models.JobItem
// @Failure      400   {object} map[string]string
// @Failure      404   {object} map[string]string
// @Router       /jobs/opportunity/{id}/apply [post]
func ApplyToOpportunity(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		postingID, err := bson.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Job opportunity not found"})
		}
		var req dto.ApplyRequest
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		item, err := svc.ApplyToOpportunity(ctx, p, postingID, req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// GetJobItems godoc
// @Summary      List job items
// @Description  Lists opportunities or applications depending on the type query param; results carry a display-safe owner.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        type                  query  string  false  "opportunities | my_applications | user_applications | all_user_applications"
// @Param        status                query  string  false  "Status filter; 'All' disables it"
// @Param        sort                  query  string  false  "newest (default) or oldest"
// @Param        company               query  string  false  "Case-insensitive substring"
// @Param        role                  query  string  false  "Case-insensitive substring"
// @Param        originalJobPostingId  query  string  false  "Posting id for user_applications"
// @Param        userId                query  string  false  "Owner filter for all_user_applications"
// @Success      200  {array} dto.JobItemWithOwner
// @Failure      400  {object} map[string]string
// @Failure      403  {object} map[string]string
// @Router       /jobs/items [get]
func GetJobItems(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		var q dto.ListQuery
		if err := c.QueryParser(&q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid query parameters"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		rows, err := svc.ListItems(ctx, p, q)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(rows)
	}
}

// GetJobItem godoc
// @Summary      Get one job item
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Job item ID (hex ObjectID)"
// @Success      200  {object} models.JobItem
// @Failure      401  {object} map[string]string
// @Failure      404  {object} map[string]string
// @Router       /jobs/items/{id} [get]
func GetJobItem(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		id, err := bson.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Job item not found"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		item, err := svc.GetItem(ctx, p, id)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(item)
	}
}

// UpdateJobItem godoc
// @Summary      Update a job item
// @Description  Which fields apply depends on role and item kind; finalized application statuses are locked for non-admins.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "Job item ID (hex ObjectID)"
// @Param        body  body  dto.UpdateJobItemRequest  true  "Fields to update"
// @Success      200  {object} models.JobItem
// @Failure      400  {object} map[string]string
// @Failure      401  {object} map[string]string
// @Failure      404  {object} map[string]string
// @Router       /jobs/items/{id} [put]
func UpdateJobItem(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		id, err := bson.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Job item not found"})
		}
		var req dto.UpdateJobItemRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		item, err := svc.UpdateItem(ctx, p, id, req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(item)
	}
}

// DeleteJobItem godoc
// @Summary      Delete a job item
// @Description  Deleting a posting cascades to all linked applications, each owner getting a socket notification.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Job item ID (hex ObjectID)"
// @Success      200  {object} map[string]string
// @Failure      401  {object} map[string]string
// @Failure      403  {object} map[string]string
// @Failure      404  {object} map[string]string
// @Router       /jobs/items/{id} [delete]
func DeleteJobItem(svc *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := middleware.PrincipalFromCtx(c)
		if err != nil {
			return errorJSON(c, err)
		}
		id, err := bson.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Job item not found"})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		summary, err := svc.DeleteItem(ctx, p, id)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": summary})
	}
}
