package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/models"
)

//
// --- Occupancy ---
//

type OccupancyRow struct {
	SessionID int64            `json:"sesion_id"`
	ClassType string           `json:"clase_tipo"`
	Date      models.Date      `json:"fecha"`
	StartTime models.TimeOfDay `json:"hora_inicio"`
	EndTime   models.TimeOfDay `json:"hora_fin"`
	Capacity  int              `json:"capacidad_maxima"`
	Reserved  int              `json:"reservadas"`
	Occupancy float64          `json:"ocupacion"` // 0..1
}

// OccupancyReport returns reserved seats per session.
// GET /private/reportes/ocupacion?desde=&hasta=
func (h *Handlers) OccupancyReport(c *gin.Context) {
	from, to, ok := h.dateSpan(c)
	if !ok {
		return
	}

	// We use a LEFT JOIN so sessions nobody booked still show up with 0.
	query := `
		SELECT s.id, c.tipo, s.fecha, s.hora_inicio, s.hora_fin, s.capacidad_maxima, COUNT(r.id)
		FROM sesiones s
		JOIN clases c ON c.id = s.clase_id
		LEFT JOIN reservas r ON r.sesion_id = s.id
		WHERE s.fecha >= ? AND s.fecha <= ?
		GROUP BY s.id, c.tipo, s.fecha, s.hora_inicio, s.hora_fin, s.capacidad_maxima
		ORDER BY s.fecha, s.hora_inicio`

	rows, err := h.DB.QueryContext(c.Request.Context(), query, from, to)
	if err != nil {
		h.internalError(c, "Failed to build occupancy report", err)
		return
	}
	defer rows.Close()

	report := []OccupancyRow{}
	var reserved, capacity int
	for rows.Next() {
		var r OccupancyRow
		if err := rows.Scan(&r.SessionID, &r.ClassType, &r.Date, &r.StartTime, &r.EndTime, &r.Capacity, &r.Reserved); err != nil {
			h.internalError(c, "Failed to scan occupancy row", err)
			return
		}
		if r.Capacity > 0 {
			r.Occupancy = float64(r.Reserved) / float64(r.Capacity)
		}
		reserved += r.Reserved
		capacity += r.Capacity
		report = append(report, r)
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating occupancy rows", err)
		return
	}

	var overall float64
	if capacity > 0 {
		overall = float64(reserved) / float64(capacity)
	}
	c.JSON(http.StatusOK, gin.H{
		"desde":     from,
		"hasta":     to,
		"sesiones":  report,
		"ocupacion": overall,
	})
}

//
// --- Gym accesses per day ---
//

type DailyCount struct {
	Date  string `json:"fecha"`
	Count int    `json:"accesos"`
}

// AttendanceReport counts client accesses per calendar day (gym timezone).
// GET /private/reportes/asistencia?desde=&hasta=
func (h *Handlers) AttendanceReport(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.DB.QueryContext(c.Request.Context(),
		"SELECT fecha_hora FROM accesos WHERE fecha_hora >= ? AND fecha_hora < ? ORDER BY fecha_hora", from, to)
	if err != nil {
		h.internalError(c, "Failed to build attendance report", err)
		return
	}
	defer rows.Close()

	// Days are bucketed here rather than with DATE() so they follow the gym's timezone.
	perDay := map[string]int{}
	total := 0
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			h.internalError(c, "Failed to scan access row", err)
			return
		}
		perDay[models.DateOf(at, h.Clock.Zone()).String()]++
		total++
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating access rows", err)
		return
	}

	days := make([]DailyCount, 0, len(perDay))
	for d, n := range perDay {
		days = append(days, DailyCount{Date: d, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	c.JSON(http.StatusOK, gin.H{"dias": days, "total": total})
}

//
// --- Revenue per month ---
//

type MonthlyRevenue struct {
	Month    int     `json:"mes"`
	Payments int     `json:"pagos"`
	Total    float64 `json:"total"`
}

// RevenueReport sums payments per month of a year (gym timezone).
// GET /private/reportes/ingresos?anio=2026
func (h *Handlers) RevenueReport(c *gin.Context) {
	now := h.Clock.Current()
	year := now.Year()
	if v := c.Query("anio"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 9999 {
			badRequest(c, "Invalid anio")
			return
		}
		year = y
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, h.Clock.Zone())
	end := start.AddDate(1, 0, 0)

	rows, err := h.DB.QueryContext(c.Request.Context(),
		"SELECT fecha, monto FROM pagos WHERE fecha >= ? AND fecha < ?", start, end)
	if err != nil {
		h.internalError(c, "Failed to build revenue report", err)
		return
	}
	defer rows.Close()

	months := make([]MonthlyRevenue, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	var total float64
	for rows.Next() {
		var (
			at     time.Time
			amount float64
		)
		if err := rows.Scan(&at, &amount); err != nil {
			h.internalError(c, "Failed to scan payment row", err)
			return
		}
		m := &months[at.In(h.Clock.Zone()).Month()-1]
		m.Payments++
		m.Total += amount
		total += amount
	}
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating payment rows", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"anio": year, "meses": months, "total": total})
}

//
// --- Staff shifts ---
//

type StaffShiftSummary struct {
	UserID      int64   `json:"usuario_id"`
	Name        string  `json:"usuario_nombre"`
	Entries     int     `json:"entradas"`
	Exits       int     `json:"salidas"`
	HoursWorked float64 `json:"horas_trabajadas"`
	OpenShifts  int     `json:"turnos_abiertos"` // entries never closed on their day
}

// ShiftReport summarizes shifts per staff member. Hours are counted from
// each entrada to the salida that closed it, the same pairing the check-out
// endpoint applies, so a night shift across midnight counts.
// GET /private/reportes/turnos?desde=&hasta=
func (h *Handlers) ShiftReport(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT t.usuario_id, u.nombre, t.tipo, t.fecha_hora
		FROM turnos t JOIN usuarios u ON u.id = t.usuario_id
		WHERE t.fecha_hora >= ? AND t.fecha_hora < ?
		ORDER BY t.usuario_id, t.fecha_hora, t.id`, from, to)
	if err != nil {
		h.internalError(c, "Failed to build shift report", err)
		return
	}
	defer rows.Close()

	var (
		summaries []StaffShiftSummary
		current   *StaffShiftSummary
		openAt    *time.Time
	)
	closeOpen := func() {
		if current != nil && openAt != nil {
			current.OpenShifts++
		}
		openAt = nil
	}
	for rows.Next() {
		var s models.Shift
		if err := rows.Scan(&s.UserID, &s.UserName, &s.Type, &s.At); err != nil {
			h.internalError(c, "Failed to scan shift row", err)
			return
		}
		if current == nil || current.UserID != s.UserID {
			closeOpen()
			summaries = append(summaries, StaffShiftSummary{UserID: s.UserID, Name: s.UserName})
			current = &summaries[len(summaries)-1]
		}
		switch s.Type {
		case models.ShiftEntry:
			current.Entries++
			closeOpen()
			at := s.At
			openAt = &at
		case models.ShiftExit:
			current.Exits++
			if openAt != nil && h.Clock.StillOpen(*openAt, s.At) {
				current.HoursWorked += s.At.Sub(*openAt).Hours()
				openAt = nil
			}
			closeOpen()
		}
	}
	closeOpen()
	if err := rows.Err(); err != nil {
		h.internalError(c, "Error iterating shift rows", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"personal": nonNil(summaries)})
}
