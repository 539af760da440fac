package extraction

import (
	"fmt"
	"math/rand"
	"strings"
	"structured-docs/internal/document"
	"structured-docs/internal/schema"
	"time"
)

// Simulator produces a plausible data mapping for a field schema when no
// real extraction result exists, so the user always gets a reviewable
// preview. It is never used when a well-formed endpoint response exists.
type Simulator struct {
	rand *rand.Rand
	now  func() time.Time
}

func NewSimulator() *Simulator {
	return &Simulator{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

// nameRule matches a field by name substring. First match in table order
// wins, exactly one rule fires per field.
type nameRule struct {
	needles []string
	value   func(s *Simulator, field schema.Field, filename string) any
}

var nameRules = []nameRule{
	{
		needles: []string{"title", "titulo"},
		value: func(s *Simulator, _ schema.Field, filename string) any {
			return fmt.Sprintf("Document from %s", filename)
		},
	},
	{
		needles: []string{"date", "fecha"},
		value: func(s *Simulator, _ schema.Field, _ string) any {
			return s.now().Format("2006-01-02")
		},
	},
	{
		needles: []string{"amount", "monto", "total"},
		value: func(s *Simulator, _ schema.Field, _ string) any {
			// [100, 1100)
			return float64(int((100+s.rand.Float64()*1000)*100)) / 100
		},
	},
	{
		needles: []string{"number", "numero"},
		value: func(s *Simulator, _ schema.Field, _ string) any {
			return fmt.Sprintf("DOC-%d", s.rand.Intn(100000))
		},
	},
	{
		needles: []string{"name", "nombre"},
		value: func(s *Simulator, _ schema.Field, _ string) any {
			return "Acme Corporation"
		},
	},
	{
		needles: []string{"email", "correo"},
		value: func(s *Simulator, _ schema.Field, _ string) any {
			return "contact@example.com"
		},
	},
}

// Simulate fills every field of the schema using the name heuristics, then
// a fallback keyed on the declared field type
func (s *Simulator) Simulate(fields schema.FieldList, filename string) document.RowData {
	data := make(document.RowData, len(fields))

	for _, field := range fields {
		data[field.Name] = s.valueFor(field, filename)
	}

	return data
}

func (s *Simulator) valueFor(field schema.Field, filename string) any {
	lower := strings.ToLower(field.Name)

	for _, rule := range nameRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.value(s, field, filename)
			}
		}
	}

	// no name heuristic matched, fall back on the declared type
	switch field.Type {
	case schema.TypeNumber:
		return s.rand.Intn(1000)
	case schema.TypeDate:
		return s.now().Format("2006-01-02")
	case schema.TypeBoolean:
		return false
	default:
		return fmt.Sprintf("Sample %s", field.Name)
	}
}
