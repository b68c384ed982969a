// Package reporting evaluates fixed census measures over the ward tables.
package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/auth"
	"github.com/ehr/ward/internal/platform/db"
)

// MeasureDefinition is a named SQL query. Parameters are bound positionally
// in the listed order.
type MeasureDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"-"`
	Parameters  []Parameter `json:"parameters"`
}

// Parameter is a date bound of a measure. Default is relative to today:
// a value of -30 means thirty days ago.
type Parameter struct {
	Name        string `json:"name"`
	DefaultDays int    `json:"default_days"`
}

type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

var dateRange = []Parameter{{Name: "from", DefaultDays: -30}, {Name: "to", DefaultDays: 0}}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "bed-occupancy",
		Name:        "Bed Occupancy",
		Description: "Beds in the pool by status",
		SQL:         `SELECT status, COUNT(*) AS total FROM beds GROUP BY status ORDER BY status`,
	},
	{
		ID:          "discharges-by-date",
		Name:        "Discharges by Date",
		Description: "Discharges per day within the date range",
		SQL: `SELECT to_char(discharge_date, 'YYYY-MM-DD') AS discharge_date, COUNT(*) AS total
			FROM discharge_history WHERE discharge_date BETWEEN $1::date AND $2::date
			GROUP BY discharge_date ORDER BY discharge_date`,
		Parameters: dateRange,
	},
	{
		ID:          "average-length-of-stay",
		Name:        "Average Length of Stay",
		Description: "Mean days between admission and discharge for discharges within the date range",
		SQL: `SELECT COUNT(*) AS discharges,
				COALESCE(ROUND(AVG(discharge_date - admission_date)::numeric, 1), 0)::float8 AS average_days
			FROM discharge_history
			WHERE admission_date IS NOT NULL AND discharge_date BETWEEN $1::date AND $2::date`,
		Parameters: dateRange,
	},
	{
		ID:          "abnormal-labs-by-category",
		Name:        "Abnormal Lab Results by Category",
		Description: "Lab results flagged abnormal within the date range, grouped by category",
		SQL: `SELECT category, COUNT(*) AS total FROM lab_results
			WHERE is_abnormal AND date BETWEEN $1::date AND $2::date
			GROUP BY category ORDER BY total DESC, category`,
		Parameters: dateRange,
	},
}

type Handler struct {
	q   db.Querier
	now func() time.Time
}

// NewHandler takes the pool, or any Querier in tests.
func NewHandler(q db.Querier) *Handler {
	return &Handler{q: q, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleClinician))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params, args, err := resolveParams(measure, c.QueryParam, h.now())
	if err != nil {
		return apperr.HTTPError(err)
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL, args...)
	if err != nil {
		return apperr.HTTPError(apperr.FromStore(err, "measure "+measure.ID))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: h.now().UTC(),
		Results:     results,
		Parameters:  params,
	})
}

// resolveParams reads each declared parameter from lookup, falling back to
// its default, and returns the values both by name and in bind order.
func resolveParams(m *MeasureDefinition, lookup func(string) string, now time.Time) (map[string]string, []interface{}, error) {
	if len(m.Parameters) == 0 {
		return nil, nil, nil
	}
	named := make(map[string]string, len(m.Parameters))
	args := make([]interface{}, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		v := lookup(p.Name)
		if v == "" {
			v = now.AddDate(0, 0, p.DefaultDays).Format(time.DateOnly)
		} else if _, err := time.Parse(time.DateOnly, v); err != nil {
			return nil, nil, apperr.Validation("%s must be a date formatted YYYY-MM-DD", p.Name)
		}
		named[p.Name] = v
		args = append(args, v)
	}
	if from, to := named["from"], named["to"]; from != "" && to != "" && from > to {
		return nil, nil, apperr.Validation("from must not be after to")
	}
	return named, args, nil
}

func (h *Handler) executeSQL(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
