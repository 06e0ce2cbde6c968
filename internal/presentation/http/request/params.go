package request

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

// ID parses the positive integer path parameter ":id".
func ID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithDetail("id", raw))
	}
	return id, nil
}
