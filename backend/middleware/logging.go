package middleware

import (
	"errors"
	"log"
	"strconv"
	"time"

	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID tags every request with an X-Request-ID, reusing the client's one if sent.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Locals(requestIDKey, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

func LoggingMiddleware(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		requestID, _ := c.Locals(requestIDKey).(string)
		logger.Printf(
			"%s %s %s %s %v req=%s",
			c.IP(),
			utils.Colorize(logger, utils.MethodColor(c.Method()), c.Method()),
			c.Path(),
			utils.Colorize(logger, utils.StatusColor(status), strconv.Itoa(status)),
			time.Since(start),
			requestID,
		)

		return err
	}
}
