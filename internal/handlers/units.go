package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/services"
	"github.com/soltixdb/healthtrack/internal/units"
)

// ConvertUnits converts a value between units
// GET /v1/units/convert?value=&from=&to=
func (h *Handler) ConvertUnits(c *fiber.Ctx) error {
	valueStr := c.Query("value")
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return badRequest(c, services.CodeInvalidRequest, "value must be a number",
			map[string]interface{}{"value": valueStr})
	}

	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		return badRequest(c, services.CodeInvalidRequest, "from and to are required", nil)
	}

	result, err := units.Convert(value, from, to)
	if err != nil {
		if errors.Is(err, units.ErrUnsupportedConversion) {
			return badRequest(c, services.CodeUnsupportedConversion, err.Error(), nil)
		}
		return err
	}

	return c.JSON(models.ConvertResponse{
		Value:  value,
		From:   from,
		To:     to,
		Result: units.Round(result, 2),
	})
}
