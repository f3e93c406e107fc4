package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestCalendar_TotalOverLeapYear(t *testing.T) {
	cal := DefaultCalendar()

	days := 0
	for d := day(2024, time.January, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		days++

		sel := cal.Pick(d)
		require.False(t, sel.Fallback, "fallback taken on %s", d.Format("2006-01-02"))
		require.NotEmpty(t, sel.Template)

		seasonal := 0
		for _, match := range []func(time.Time) bool{IsHalloween, IsAdvent, IsChristmas} {
			if match(d) {
				seasonal++
			}
		}
		require.LessOrEqual(t, seasonal, 1, "overlapping seasons on %s", d.Format("2006-01-02"))
		if seasonal == 0 {
			assert.Equal(t, TemplateDefault, sel.Template, d.Format("2006-01-02"))
		}
	}
	assert.Equal(t, 366, days)
}

func TestIsHalloween_ExactWindow(t *testing.T) {
	matched := 0
	for d := day(2023, time.January, 1); d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		want := (d.Month() == time.October && d.Day() >= 19) ||
			(d.Month() == time.November && d.Day() <= 3)
		assert.Equal(t, want, IsHalloween(d), d.Format("2006-01-02"))
		if IsHalloween(d) {
			matched++
		}
	}
	// 19..31 de outubro + 1..3 de novembro
	assert.Equal(t, 16, matched)

	assert.False(t, IsHalloween(day(2023, time.October, 18)))
	assert.True(t, IsHalloween(day(2023, time.October, 19)))
	assert.True(t, IsHalloween(day(2023, time.November, 3)))
	assert.False(t, IsHalloween(day(2023, time.November, 4)))
}

func TestCalendar_Selections(t *testing.T) {
	cal := DefaultCalendar()

	cases := []struct {
		date time.Time
		rule string
		want TemplateID
	}{
		{day(2024, time.October, 31), "halloween", TemplateHalloween},
		{day(2024, time.December, 1), "christmas-advent", AdventTemplate(0)},
		{day(2024, time.December, 22), "christmas-advent", AdventTemplate(21)},
		{day(2024, time.December, 23), "christmas", TemplateChristmas},
		{day(2024, time.December, 27), "christmas", TemplateChristmas},
		{day(2024, time.December, 28), "default", TemplateDefault},
		{day(2024, time.February, 29), "default", TemplateDefault},
	}
	for _, c := range cases {
		sel := cal.Pick(c.date)
		assert.Equal(t, c.rule, sel.Rule, c.date.Format("2006-01-02"))
		assert.Equal(t, c.want, sel.Template, c.date.Format("2006-01-02"))
	}
}

func TestAdventTemplate_DayToVariant(t *testing.T) {
	assert.Equal(t, TemplateID("advent/01"), AdventTemplate(0))
	assert.Equal(t, TemplateID("advent/22"), AdventTemplate(21))

	cal := DefaultCalendar()
	for d := 1; d <= AdventDays; d++ {
		assert.Equal(t, AdventTemplate(d-1), cal.Pick(day(2025, time.December, d)).Template)
	}
}

func TestNewCalendar_RejectsConditionalLastRule(t *testing.T) {
	rules := DefaultRules()
	// move a regra padrão para o início: a lista deixa de terminar numa regra incondicional
	reordered := append([]Rule{rules[len(rules)-1]}, rules[:len(rules)-1]...)

	_, err := NewCalendar(reordered...)
	require.ErrorIs(t, err, ErrCalendarNotTotal)

	_, err = NewCalendar()
	require.ErrorIs(t, err, ErrCalendarNotTotal)

	_, err = NewCalendar(Rule{Name: "default"})
	require.ErrorIs(t, err, ErrInvalidRule)
}

func TestCalendar_FallbackWhenNothingMatches(t *testing.T) {
	var cal Calendar

	sel := cal.Pick(day(2024, time.May, 5))
	assert.True(t, sel.Fallback)
	assert.Equal(t, TemplateDefault, sel.Template)
}
