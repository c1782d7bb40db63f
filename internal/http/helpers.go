package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"finzen/internal/auth"
	"finzen/internal/core"
	"finzen/internal/tables"
)

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

var longMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var iconLabels = map[core.GoalIcon]string{
	"target":         "General",
	"home":           "Casa",
	"car":            "Auto",
	"plane":          "Viaje",
	"graduation-cap": "Educación",
	"heart":          "Salud",
	"gift":           "Regalo",
	"smartphone":     "Tecnología",
}

var windowLabels = map[core.DateWindow]string{
	core.WindowToday: "Hoy",
	core.WindowWeek:  "Última semana",
	core.WindowMonth: "Este mes",
	core.WindowAll:   "Todo el tiempo",
}

// formatMoney renders an amount as "$1,234.56".
func formatMoney(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(cents/100), cents%100)
}

// formatSigned prefixes income with "+" and expenses with "-".
func formatSigned(tx core.Transaction) string {
	if tx.Type == core.Income {
		return "+" + formatMoney(tx.Amount)
	}
	return "-" + formatMoney(tx.Amount)
}

// formatDay renders a transaction date relative to now: "Hoy", "Ayer",
// "2 jun", or "2 jun 2024" outside the current year.
func formatDay(d core.Date, now time.Time) string {
	if d.IsZero() {
		return ""
	}
	if d.SameDay(now) {
		return "Hoy"
	}
	if d.SameDay(now.AddDate(0, 0, -1)) {
		return "Ayer"
	}
	s := fmt.Sprintf("%d %s", d.Day(), shortMonths[d.Month()-1])
	if d.Year() != now.Year() {
		s += fmt.Sprintf(" %d", d.Year())
	}
	return s
}

func formatMonth(month time.Month, year int) string {
	return fmt.Sprintf("%s %d", longMonths[month-1], year)
}

func iconLabel(icon core.GoalIcon) string {
	if l, ok := iconLabels[icon]; ok {
		return l
	}
	return iconLabels[core.DefaultGoalIcon]
}

func windowLabel(w core.DateWindow) string {
	return windowLabels[w]
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

// categoryLabel capitalizes the stored lower-case label.
func categoryLabel(c string) string {
	if c == "" {
		return ""
	}
	r := []rune(c)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// sanitizeInput drops control characters other than tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidType, core.ErrInvalidAmount, core.ErrInvalidCategory,
		core.ErrInvalidDate, core.ErrDescriptionTooLong, core.ErrEmptyTitle,
		core.ErrTitleTooLong, core.ErrInvalidTarget, core.ErrInvalidIcon,
		core.ErrInvalidTypeFilter, core.ErrInvalidDateWindow,
		auth.ErrInvalidEmail, auth.ErrWeakPassword, auth.ErrPasswordTooLong, auth.ErrInvalidName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, tables.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the Spanish text shown for err; fallback is used for
// anything that is not a known user error.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, core.ErrInvalidTarget):
		return "La meta debe ser mayor a cero"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Ingresa un monto válido mayor a cero"
	case errors.Is(err, core.ErrInvalidType):
		return "Selecciona si es ingreso o gasto"
	case errors.Is(err, core.ErrInvalidCategory):
		return "Selecciona una categoría válida"
	case errors.Is(err, core.ErrInvalidDate):
		return "Ingresa una fecha válida"
	case errors.Is(err, core.ErrDescriptionTooLong):
		return fmt.Sprintf("La descripción no puede superar %d caracteres", core.MaxDescriptionLength)
	case errors.Is(err, core.ErrEmptyTitle):
		return "El título es obligatorio"
	case errors.Is(err, core.ErrTitleTooLong):
		return fmt.Sprintf("El título no puede superar %d caracteres", core.MaxGoalTitleLength)
	case errors.Is(err, core.ErrInvalidIcon):
		return "Selecciona un ícono válido"
	case errors.Is(err, core.ErrInvalidTypeFilter), errors.Is(err, core.ErrInvalidDateWindow):
		return "Filtro no válido"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Correo o contraseña incorrectos"
	case errors.Is(err, auth.ErrEmailTaken):
		return "Este correo ya está registrado"
	case errors.Is(err, auth.ErrInvalidEmail):
		return "Ingresa un correo electrónico válido"
	case errors.Is(err, auth.ErrWeakPassword):
		return fmt.Sprintf("La contraseña debe tener al menos %d caracteres", auth.MinPasswordLength)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return "La contraseña es demasiado larga"
	case errors.Is(err, auth.ErrInvalidName):
		return "Ingresa tu nombre completo"
	case errors.Is(err, auth.ErrInvalidSession):
		return "Tu sesión expiró, inicia sesión de nuevo"
	case errors.Is(err, tables.ErrNotFound):
		return "La transacción no existe"
	}
	return fallback
}
