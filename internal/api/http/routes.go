package httpapi

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-app/internal/location"
	"github.com/i474232898/weather-app/internal/screen"
	"github.com/i474232898/weather-app/internal/weather"
)

var validate = validator.New()

// PermissionControl reads and records the location permission.
type PermissionControl interface {
	Status(ctx context.Context) (location.Permission, error)
	Set(p location.Permission)
}

// Deps are the view models the API exposes.
type Deps struct {
	Home       *screen.Home
	Explore    *screen.Explore
	Permission PermissionControl
}

// ErrorHandler renders every error as {"error":true,"message":...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// statusFor maps a display error kind to an HTTP status.
func statusFor(kind weather.Kind) int {
	switch kind {
	case weather.KindValidation:
		return fiber.StatusBadRequest
	case weather.KindNotFound:
		return fiber.StatusNotFound
	case weather.KindPermission:
		return fiber.StatusForbidden
	case weather.KindAlreadyExists:
		return fiber.StatusConflict
	case weather.KindConfig:
		return fiber.StatusServiceUnavailable
	case weather.KindTimeout:
		return fiber.StatusGatewayTimeout
	case weather.KindProvider, weather.KindLocation:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// respond sends the screen state; a failed operation sets the status code
// but the body is still the state the screen shows.
func respond(c *fiber.Ctx, state any, err error) error {
	if err != nil {
		code := fiber.StatusInternalServerError
		if de, ok := weather.AsDisplayError(err); ok {
			code = statusFor(de.Kind)
		}
		c.Status(code)
	}
	return c.JSON(state)
}

// Empty names are left to the screens, which report or ignore them.
type searchRequest struct {
	City string `json:"city"`
}

type favoriteRequest struct {
	Name string `json:"name"`
}

type permissionRequest struct {
	Status string `json:"status" validate:"required,oneof=granted denied undetermined"`
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	home := v1.Group("/home")

	home.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(deps.Home.Snapshot())
	})

	home.Post("/start", func(c *fiber.Ctx) error {
		state, err := deps.Home.Start(c.UserContext())
		return respond(c, state, err)
	})

	home.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		state, err := deps.Home.Search(c.UserContext(), req.City)
		return respond(c, state, err)
	})

	home.Post("/locate", func(c *fiber.Ctx) error {
		state, err := deps.Home.UseCurrentLocation(c.UserContext())
		return respond(c, state, err)
	})

	home.Post("/favorite", func(c *fiber.Ctx) error {
		state, err := deps.Home.ToggleFavorite(c.UserContext())
		return respond(c, state, err)
	})

	favs := v1.Group("/favorites")

	favs.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(deps.Explore.Load(c.UserContext()))
	})

	favs.Post("/", func(c *fiber.Ctx) error {
		var req favoriteRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		state, err := deps.Explore.Add(c.UserContext(), req.Name)
		return respond(c, state, err)
	})

	favs.Delete("/:name", func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid favorite name")
		}
		state, err := deps.Explore.Remove(c.UserContext(), name)
		return respond(c, state, err)
	})

	v1.Get("/location/permission", func(c *fiber.Ctx) error {
		status, err := deps.Permission.Status(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read location permission")
		}
		return c.JSON(fiber.Map{"status": status})
	})

	v1.Put("/location/permission", func(c *fiber.Ctx) error {
		var req permissionRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		p, err := location.ParsePermission(req.Status)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		deps.Permission.Set(p)
		return c.JSON(fiber.Map{"status": p})
	})

	v1.Get("/icons/:code", func(c *fiber.Ctx) error {
		code := c.Params("code")
		_, _, known := weather.ParseIconCode(code)
		return c.JSON(fiber.Map{
			"code":     code,
			"known":    known,
			"icon":     weather.IconName(code),
			"gradient": weather.Gradient(code),
		})
	})
}
