package controllers

import (
	"errors"
	"log"
	"strconv"

	"learnhub/backend/services"
	"learnhub/backend/storage"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service error kinds onto HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *services.ValidationError
		nf   *services.NotFoundError
		aerr *storage.AssetError
		cerr *services.ConstraintError
	)
	switch {
	case errors.As(err, &verr):
		return utils.ValidationError(c, verr.Error(), verr.FieldMap(), verr.Input)
	case errors.As(err, &nf):
		return utils.NotFound(c, nf.Error())
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Unauthorized(c, "Invalid credentials")
	case errors.As(err, &aerr):
		return utils.Error(c, fiber.StatusBadGateway, aerr)
	case errors.As(err, &cerr):
		return utils.Conflict(c, cerr.Error())
	}

	log.Printf("request %v failed: %v", c.Locals("request_id"), err)
	return utils.InternalServerError(c, "Internal server error")
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// formUpload wraps the named multipart file, if any. release must always be called.
func formUpload(c *fiber.Ctx, field string) (upload *services.Upload, release func(), err error) {
	release = func() {}
	fh, f, err := utils.FormFile(c, field)
	if err != nil || fh == nil {
		return nil, release, err
	}
	return &services.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}, func() { f.Close() }, nil
}
