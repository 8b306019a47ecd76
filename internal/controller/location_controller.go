package controller

import (
	"errors"

	"driver-location-be/internal/dto"
	"driver-location-be/internal/pkg/serverutils"
	"driver-location-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILocationController interface {
	RegisterRoutes(r fiber.Router)
	SearchNearby(ctx *fiber.Ctx) error
	UpdateLocation(ctx *fiber.Ctx) error
}

type locationController struct {
	presence        service.IPresenceService
	proximity       service.IProximityService
	defaultRadiusKm int
}

func NewLocationController(presence service.IPresenceService, proximity service.IProximityService, defaultRadiusKm int) ILocationController {
	return &locationController{
		presence:        presence,
		proximity:       proximity,
		defaultRadiusKm: defaultRadiusKm,
	}
}

func (c *locationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/locations")
	h.Get("/search", c.SearchNearby)
	h.Put("/:driverId", c.UpdateLocation)
}

func (c *locationController) SearchNearby(ctx *fiber.Ctx) error {
	req := dto.SearchNearbyRequest{Radius: c.defaultRadiusKm}
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	drivers, err := c.proximity.FindNearby(ctx.UserContext(), service.NearbyQuery{
		Center:   dto.Position(*req.Longitude, *req.Latitude),
		RadiusKm: float64(req.Radius),
	})
	if err != nil {
		if errors.Is(err, service.ErrGeoIndexUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "location index unavailable")
		}
		return err
	}

	res := make([]dto.NearbyDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		res = append(res, dto.NearbyDriverResponse{DriverID: d.DriverID, DistanceKm: d.DistanceKm})
	}
	return ctx.JSON(serverutils.SuccessResponse("Nearby drivers", res))
}

func (c *locationController) UpdateLocation(ctx *fiber.Ctx) error {
	var req dto.UpdateLocationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	err := c.presence.RecordPosition(ctx.UserContext(), ctx.Params("driverId"), req.Position())
	switch {
	case err == nil:
		return ctx.JSON(serverutils.SuccessResponse("Location updated", nil))
	case errors.Is(err, service.ErrInvalidDriverID):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
}
