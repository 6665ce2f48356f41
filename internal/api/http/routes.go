package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/flood-risk/internal/district"
	"github.com/i474232898/flood-risk/internal/flood"
	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/store"
	"github.com/i474232898/flood-risk/internal/weather"
)

var validate = validator.New()

// Predictor answers flood-risk questions.
type Predictor interface {
	Assess(ctx context.Context, req flood.Request) (flood.PredictionResult, error)
	RiskMap(ctx context.Context, districts []string) ([]flood.MapEntry, error)
}

// WeatherReader exposes current and stored weather samples.
type WeatherReader interface {
	Lookup(ctx context.Context, loc weather.Location) weather.Sample
	GetRange(loc weather.Location, from, to time.Time) ([]weather.Sample, error)
}

// ErrorHandler is the centralized Fiber error handler. Fiber errors keep their
// status and message; anything else is logged and reported as a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.Printf("ERROR: %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, predictor Predictor, weatherSvc WeatherReader, table *risk.Table) {
	v1 := app.Group("/api/v1")

	v1.Get("/districts", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"districts": districtViews(table),
		})
	})

	v1.Post("/predict", func(c *fiber.Ctx) error {
		var req predictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := predictor.Assess(c.UserContext(), req.toRequest())
		if err != nil {
			if errors.Is(err, flood.ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to assess flood risk")
		}

		return c.JSON(result)
	})

	v1.Get("/risk-map", func(c *fiber.Ctx) error {
		districts := splitList(c.Query("districts"))
		entries, err := predictor.RiskMap(c.UserContext(), districts)
		if err != nil {
			if errors.Is(err, flood.ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build risk map")
		}

		colors := make(map[string]string, len(entries))
		for _, e := range entries {
			colors[e.District] = e.Color
		}

		return c.JSON(fiber.Map{
			"districts": entries,
			"colors":    colors,
			"count":     len(entries),
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseDistrictQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, ok := q.toLocation()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown district")
		}

		return c.JSON(weatherSvc.Lookup(c.UserContext(), loc))
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, ok := req.District.toLocation()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown district")
		}

		samples, err := weatherSvc.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"samples":  samples,
		})
	})
}

// predictRequest is the body of a prediction request.
type predictRequest struct {
	District          string         `json:"district" validate:"required"`
	IsRaining         *YesNo         `json:"is_raining" validate:"required"`
	DrainageCondition DrainageAnswer `json:"drainage_condition"`
	FloodsWhenRaining YesNo          `json:"floods_when_raining"`
}

func (p predictRequest) toRequest() flood.Request {
	return flood.Request{
		District:          p.District,
		IsRaining:         bool(*p.IsRaining),
		Drainage:          int(p.DrainageCondition),
		FloodsWhenRaining: bool(p.FloodsWhenRaining),
	}
}

type districtView struct {
	Key          string                `json:"key"`
	Name         string                `json:"name"`
	Coordinates  *district.Coordinates `json:"coordinates,omitempty"`
	BaseRisk     int                   `json:"baseRisk"`
	MeanRisk     float64               `json:"meanRisk"`
	Distribution risk.Distribution     `json:"distribution"`
	InTable      bool                  `json:"inTable"`
}

// districtViews lists the catalogue first, then any table rows for districts
// outside it.
func districtViews(table *risk.Table) []districtView {
	all := district.All()
	views := make([]districtView, 0, len(all))
	listed := make(map[string]struct{}, len(all))

	for _, d := range all {
		coords := d.Coordinates
		v := districtView{
			Key:          d.Key,
			Name:         d.Name,
			Coordinates:  &coords,
			BaseRisk:     risk.DefaultBaseRisk,
			Distribution: risk.UniformDistribution(),
		}
		if e, ok := table.Entry(d.Key); ok {
			v.BaseRisk = e.BaseRisk
			v.MeanRisk = e.MeanRisk
			v.Distribution = e.Distribution
			v.InTable = true
		}
		views = append(views, v)
		listed[d.Key] = struct{}{}
	}

	for _, e := range table.Entries() {
		if _, ok := listed[e.Key]; ok {
			continue
		}
		views = append(views, districtView{
			Key:          e.Key,
			Name:         e.Name,
			BaseRisk:     e.BaseRisk,
			MeanRisk:     e.MeanRisk,
			Distribution: e.Distribution,
			InTable:      true,
		})
	}
	return views
}

// districtQuery holds the query parameter identifying a district.
type districtQuery struct {
	District string `validate:"required"`
}

func (q districtQuery) toLocation() (weather.Location, bool) {
	d, ok := district.Lookup(q.District)
	if !ok {
		return weather.Location{}, false
	}
	return weather.Location{District: d.Key, Lat: d.Coordinates.Lat, Lon: d.Coordinates.Lon}, true
}

func parseDistrictQuery(c *fiber.Ctx) (districtQuery, error) {
	var q districtQuery

	q.District = strings.TrimSpace(c.Query("district"))

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	District districtQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseDistrictQuery(c)
	if err != nil {
		return err
	}
	h.District = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
