package utils

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
)

// FormFile returns the named multipart file, or nils when the request carries
// no file under that field. The caller must close the returned reader.
func FormFile(c *fiber.Ctx, field string) (*multipart.FileHeader, io.ReadCloser, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return fh, f, nil
}
