package controller

import (
	"bufio"
	"encoding/json"

	"ai-eventplanner-be/internal/dto"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/internal/pkg/serverutils"
	"ai-eventplanner-be/internal/service"
	"ai-eventplanner-be/pkg/planner/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IPlannerController interface {
	RegisterRoutes(r fiber.Router)
	ProcessInput(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	GetSessionEvents(ctx *fiber.Ctx) error
	StreamSession(ctx *fiber.Ctx) error
}

type plannerController struct {
	plannerService service.IPlannerService
	streamer       *stream.Publisher
	logger         logger.ILogger
}

func NewPlannerController(plannerService service.IPlannerService, streamer *stream.Publisher, log logger.ILogger) IPlannerController {
	return &plannerController{
		plannerService: plannerService,
		streamer:       streamer,
		logger:         log,
	}
}

func (c *plannerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/planner/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("process", c.ProcessInput)
	h.Get("sessions", c.GetAllSessions)
	h.Get("session/:id", c.GetSession)
	h.Get("session/:id/events", c.GetSessionEvents)
	h.Get("session/:id/stream", c.StreamSession)
}

func (c *plannerController) ProcessInput(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ProcessInputRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	res, err := c.plannerService.ProcessInput(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Processing started", res))
}

func (c *plannerController) GetAllSessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.plannerService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Processing sessions", res))
}

func (c *plannerController) GetSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	res, err := c.plannerService.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Session detail", res))
}

func (c *plannerController) GetSessionEvents(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	res, err := c.plannerService.GetSessionEvents(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Session events", res))
}

// StreamSession pushes progress frames over SSE until the session reaches a
// terminal state or the stream gives up. The connection closing is the
// client's signal that no more frames will come.
func (c *plannerController) StreamSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The stream writer runs after this handler returns; only the captured
	// fasthttp context is safe to touch in there. It doubles as the cancel
	// signal when the client goes away.
	reqCtx := ctx.Context()

	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := func(update dto.ProgressUpdate) error {
			data, err := json.Marshal(update)
			if err != nil {
				return err
			}
			if _, err := w.WriteString("data: " + string(data) + "\n\n"); err != nil {
				return err
			}
			return w.Flush()
		}

		if err := c.streamer.Stream(reqCtx, id, emit); err != nil {
			c.logger.Debug("PlannerController", "Stream ended on emit error", map[string]interface{}{
				"session_id": id, "error": err.Error(),
			})
		}
	}))

	return nil
}
