package itinerary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

// NoticeTemplate is printed at the top of itineraries whose pool is smaller
// than the trip. The verbs are the pool size and the trip length in days.
const NoticeTemplate = "⚠️ AVISO: Se encontraron solo %d publicación(es) para un viaje de %d día(s), por lo que el itinerario se limita a los días que esos lugares permiten cubrir."

const noticePrefix = "⚠️ AVISO:"

const maxDescriptionRunes = 200

func Notice(poolSize, tripDays int) string {
	return fmt.Sprintf(NoticeTemplate, poolSize, tripDays)
}

// PromptInput gathers everything the prompt is rendered from.
type PromptInput struct {
	Destination   string
	StartDate     types.Date
	EndDate       types.Date
	Budget        int
	CantPersons   int
	TripType      string
	ArrivalTime   *string
	DepartureTime *string
	Comments      *string
	Preferences   *string
	Pool          []types.Publication
}

func (in PromptInput) TripDays() int {
	return types.DaysBetweenInclusive(in.StartDate, in.EndDate)
}

// MaxDays caps the itinerary at one day per available publication.
func (in PromptInput) MaxDays() int {
	return min(in.TripDays(), len(in.Pool))
}

// BuildPrompt renders the generation prompt. The output depends only on in.
func BuildPrompt(in PromptInput) string {
	tripDays := in.TripDays()
	maxDays := in.MaxDays()

	var b strings.Builder
	b.WriteString("Eres un planificador de viajes experto. Genera un itinerario detallado, día por día, en español.\n\n")

	fmt.Fprintf(&b, "DESTINO: %s\n", strings.TrimSpace(in.Destination))
	fmt.Fprintf(&b, "FECHAS: del %s al %s (%d día(s))\n", in.StartDate, in.EndDate, tripDays)
	fmt.Fprintf(&b, "PRESUPUESTO TOTAL: %d USD\n", in.Budget)
	fmt.Fprintf(&b, "CANTIDAD DE PERSONAS: %d\n", in.CantPersons)
	fmt.Fprintf(&b, "ESTILO DE VIAJE: %s\n", in.TripType)

	if prefs := renderPreferences(in.Preferences); prefs != "" {
		fmt.Fprintf(&b, "PREFERENCIAS DEL USUARIO: %s\n", prefs)
	}
	if v := optional(in.Comments); v != "" {
		fmt.Fprintf(&b, "COMENTARIOS ADICIONALES: %s\n", v)
	}
	if v := optional(in.ArrivalTime); v != "" {
		fmt.Fprintf(&b, "HORA DE LLEGADA (día 1): %s\n", v)
	}
	if v := optional(in.DepartureTime); v != "" {
		fmt.Fprintf(&b, "HORA DE SALIDA (último día): %s\n", v)
	}

	b.WriteString("\nLUGARES DISPONIBLES (usa únicamente estos):\n")
	for i, p := range in.Pool {
		writePlace(&b, i+1, p)
	}

	if len(in.Pool) < tripDays {
		b.WriteString("\n⚠️ ADVERTENCIA IMPORTANTE:\n")
		fmt.Fprintf(&b, "Solo hay %d lugar(es) disponible(s) para un viaje de %d día(s).\n", len(in.Pool), tripDays)
		fmt.Fprintf(&b, "Genera ÚNICAMENTE %d día(s) de itinerario, no más.\n", maxDays)
		b.WriteString("Comienza tu respuesta con el siguiente aviso, tal cual:\n")
		fmt.Fprintf(&b, "\"%s\"\n", Notice(len(in.Pool), tripDays))
	}

	b.WriteString("\nREGLAS OBLIGATORIAS:\n")
	b.WriteString("1. Usa SOLO los lugares de la lista anterior. No inventes ni agregues otros lugares.\n")
	b.WriteString("2. No incluyas transporte, vuelos, traslados ni alojamiento.\n")
	b.WriteString("3. Puedes repetir actividades en distintos días si hace falta.\n")
	fmt.Fprintf(&b, "4. Genera exactamente %d día(s), cada uno con el título \"Día N\" (Día 1, Día 2, ...).\n", maxDays)
	b.WriteString("5. Organiza cada día en Mañana (08:00-12:00), Tarde (12:00-19:00) y Noche (19:00-23:00).\n")
	b.WriteString("6. Cada actividad va en una viñeta con su horario, por ejemplo: \"- 09:00-11:00: Visitar <lugar>\".\n")
	b.WriteString("7. Respeta los días y horarios disponibles de cada lugar.\n")
	fmt.Fprintf(&b, "8. El costo total para %d persona(s) no debe superar %d USD.\n", in.CantPersons, in.Budget)
	b.WriteString("9. Si mencionas un lugar que decidiste no incluir, dilo explícitamente.\n")

	return b.String()
}

func writePlace(b *strings.Builder, n int, p types.Publication) {
	fmt.Fprintf(b, "%d. %s\n", n, strings.TrimSpace(p.PlaceName))
	if p.Address != "" {
		fmt.Fprintf(b, "   Dirección: %s\n", p.Address)
	}
	if p.RatingAvg > 0 {
		fmt.Fprintf(b, "   Calificación: %.1f/5 (%d reseña(s))\n", p.RatingAvg, p.RatingCount)
	}
	if len(p.Categories) > 0 {
		fmt.Fprintf(b, "   Categorías: %s\n", strings.Join(p.Categories, ", "))
	}
	if d := formatDuration(p.DurationMin); d != "" {
		fmt.Fprintf(b, "   Duración estimada: %s\n", d)
	}
	if p.CostPerDay != nil {
		fmt.Fprintf(b, "   Costo por persona por día: %.2f USD\n", *p.CostPerDay)
	} else {
		b.WriteString("   Costo: gratuito\n")
	}
	if len(p.AvailableDays) > 0 {
		fmt.Fprintf(b, "   Días disponibles: %s\n", strings.Join(p.AvailableDays, ", "))
	}
	if len(p.AvailableHours) > 0 {
		fmt.Fprintf(b, "   Horarios: %s\n", strings.Join(p.AvailableHours, ", "))
	}
	if desc := truncate(strings.TrimSpace(p.Description), maxDescriptionRunes); desc != "" {
		fmt.Fprintf(b, "   Descripción: %s\n", desc)
	}
}

func formatDuration(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return ""
	}
	m := *minutes
	switch {
	case m < 60:
		return fmt.Sprintf("%d minutos", m)
	case m == 60:
		return "1 hora"
	case m%60 == 0:
		return fmt.Sprintf("%d horas", m/60)
	default:
		return fmt.Sprintf("%.1f horas", float64(m)/60)
	}
}

// renderPreferences flattens JSON object preferences into "key: value" pairs
// with sorted keys. Anything else is used as free text.
func renderPreferences(prefs *string) string {
	raw := optional(prefs)
	if raw == "" {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || len(obj) == 0 {
		return raw
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, renderValue(obj[k])))
	}
	return strings.Join(parts, "; ")
}

func renderValue(v any) string {
	switch val := v.(type) {
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, renderValue(item))
		}
		return strings.Join(items, ", ")
	case map[string]any:
		encoded, _ := json.Marshal(val)
		return string(encoded)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// ensureNotice prepends the short-pool notice when the model left it out.
func ensureNotice(text string, poolSize, tripDays int) string {
	if poolSize >= tripDays || strings.HasPrefix(strings.TrimSpace(text), noticePrefix) {
		return text
	}
	return Notice(poolSize, tripDays) + "\n\n" + text
}
