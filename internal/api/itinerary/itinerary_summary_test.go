package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

func TestSummarizeUsage(t *testing.T) {
	text := "⚠️ AVISO: Café Tortoni aparece en la lista\n" +
		"**Día 1 - Lunes**\n" +
		"- 09:00-11:00: Visitar el Teatro Colón\n" +
		"- 13:30: Almorzar en Café Tortoni\n" +
		"### Día 2\n" +
		"- 10:00: Recorrer el Teatro Colón otra vez\n" +
		"- Por la tarde, volver al Teatro Colón\n"
	used := []types.Publication{place(1, "Teatro Colón"), place(2, "Café Tortoni")}

	got := SummarizeUsage(text, mustDate(t, "2025-03-10"), used)

	require.Len(t, got, 2)
	assert.Equal(t, types.PublicationUsage{
		PublicationID: 1,
		TimesUsed:     3,
		DaysUsed:      []string{"2025-03-10", "2025-03-11"},
		HoursUsed:     []string{"09:00", "10:00"},
	}, got[0])
	assert.Equal(t, types.PublicationUsage{
		PublicationID: 2,
		TimesUsed:     1,
		DaysUsed:      []string{"2025-03-10"},
		HoursUsed:     []string{"13:30"},
	}, got[1])
}

func TestSummarizeUsageEnglishHeadingsAndPadding(t *testing.T) {
	text := "Day 3\n- 9:15 Explore Caminito\n"

	got := SummarizeUsage(text, mustDate(t, "2025-03-10"), []types.Publication{place(9, "Caminito")})

	require.Len(t, got, 1)
	assert.Equal(t, []string{"2025-03-12"}, got[0].DaysUsed)
	assert.Equal(t, []string{"09:15"}, got[0].HoursUsed)
}

func TestSummarizeUsageSkipsUnmentioned(t *testing.T) {
	got := SummarizeUsage("Día 1\n- 09:00: Visitar Caminito", mustDate(t, "2025-03-10"),
		[]types.Publication{place(1, "Obelisco")})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
