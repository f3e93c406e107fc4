package domain

import "time"

// Rule associa um predicado de data a um template.
//
// Match nil significa "sempre": é assim que a última regra (padrão) é
// declarada, e NewCalendar exige que a última regra seja desse tipo.
type Rule struct {
	Name   string
	Match  func(date time.Time) bool
	Select func(date time.Time) TemplateID
}

func (r Rule) matches(date time.Time) bool {
	return r.Match == nil || r.Match(date)
}

// Selection é o resultado de Calendar.Pick.
type Selection struct {
	Rule     string
	Template TemplateID
	// Fallback indica que nenhuma regra casou e o template padrão foi usado.
	// Numa lista criada por NewCalendar isso nunca acontece.
	Fallback bool
}

// Calendar avalia as regras em ordem; a primeira que casar vence.
type Calendar struct {
	rules []Rule
}

// NewCalendar valida a lista: pelo menos uma regra, todas com nome e
// seletor, e a última incondicional.
func NewCalendar(rules ...Rule) (*Calendar, error) {
	if len(rules) == 0 || rules[len(rules)-1].Match != nil {
		return nil, ErrCalendarNotTotal
	}
	for _, r := range rules {
		if r.Name == "" || r.Select == nil {
			return nil, ErrInvalidRule
		}
	}
	return &Calendar{rules: append([]Rule(nil), rules...)}, nil
}

// DefaultCalendar retorna o calendário com DefaultRules.
func DefaultCalendar() *Calendar {
	c, err := NewCalendar(DefaultRules()...)
	if err != nil {
		panic("default seasonal rules are not total: " + err.Error())
	}
	return c
}

// Pick retorna o template da data. A data é avaliada como está; quem chama
// decide o fuso (o servidor usa UTC).
func (c *Calendar) Pick(date time.Time) Selection {
	for _, r := range c.rules {
		if r.matches(date) {
			return Selection{Rule: r.Name, Template: r.Select(date)}
		}
	}
	return Selection{Rule: "default", Template: TemplateDefault, Fallback: true}
}

// Rules retorna uma cópia da lista, na ordem de avaliação.
func (c *Calendar) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// DefaultRules é a lista sazonal, em ordem de avaliação.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "halloween",
			Match:  IsHalloween,
			Select: fixed(TemplateHalloween),
		},
		{
			Name:  "christmas-advent",
			Match: IsAdvent,
			Select: func(date time.Time) TemplateID {
				return AdventTemplate(date.Day() - 1)
			},
		},
		{
			Name:   "christmas",
			Match:  IsChristmas,
			Select: fixed(TemplateChristmas),
		},
		{
			Name:   "default",
			Select: fixed(TemplateDefault),
		},
	}
}

// IsHalloween: 19 a 31 de outubro e 1 a 3 de novembro.
func IsHalloween(date time.Time) bool {
	return (date.Month() == time.October && date.Day() >= 19) ||
		(date.Month() == time.November && date.Day() <= 3)
}

// IsAdvent: 1 a 22 de dezembro.
func IsAdvent(date time.Time) bool {
	return date.Month() == time.December && date.Day() <= AdventDays
}

// IsChristmas: 23 a 27 de dezembro.
func IsChristmas(date time.Time) bool {
	return date.Month() == time.December && date.Day() > AdventDays && date.Day() < 28
}

func fixed(id TemplateID) func(time.Time) TemplateID {
	return func(time.Time) TemplateID { return id }
}
