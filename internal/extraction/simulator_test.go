package extraction

import (
	"fmt"
	"structured-docs/internal/schema"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func simulate(t *testing.T, field schema.Field, filename string) any {
	t.Helper()
	data := NewSimulator().Simulate(schema.FieldList{field}, filename)
	return data[field.Name]
}

// A date-named field yields today's calendar date regardless of type
func TestSimulate_DateFieldYieldsToday(t *testing.T) {
	value := simulate(t, schema.Field{Name: "fecha", Type: schema.TypeDate}, "x.pdf")

	assert.Equal(t, time.Now().Format("2006-01-02"), value)
}

func TestSimulate_TitleReferencesFilename(t *testing.T) {
	value := simulate(t, schema.Field{Name: "titulo", Type: schema.TypeText}, "invoice-march.pdf")

	assert.Contains(t, value.(string), "invoice-march.pdf")
}

// amount values are pseudorandom, assert the documented range instead of an
// exact value
func TestSimulate_AmountInRange(t *testing.T) {
	for n := 0; n < 50; n++ {
		value := simulate(t, schema.Field{Name: "total amount", Type: schema.TypeNumber}, "x.pdf")

		amount, ok := value.(float64)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, amount, 100.0)
		assert.Less(t, amount, 1100.0)
	}
}

func TestSimulate_NumberFieldGetsDocReference(t *testing.T) {
	value := simulate(t, schema.Field{Name: "numero", Type: schema.TypeText}, "x.pdf")

	assert.Regexp(t, `^DOC-\d+$`, value)
}

func TestSimulate_NameAndEmailPlaceholders(t *testing.T) {
	name := simulate(t, schema.Field{Name: "nombre", Type: schema.TypeText}, "x.pdf")
	email := simulate(t, schema.Field{Name: "correo", Type: schema.TypeEmail}, "x.pdf")

	assert.Equal(t, "Acme Corporation", name)
	assert.Equal(t, "contact@example.com", email)
}

// First match in the ordered table wins: "fecha de nombre" hits the date
// rule before the name rule
func TestSimulate_FirstMatchWins(t *testing.T) {
	value := simulate(t, schema.Field{Name: "fecha de nombre", Type: schema.TypeText}, "x.pdf")

	assert.Equal(t, time.Now().Format("2006-01-02"), value)
}

func TestSimulate_TypeFallbacks(t *testing.T) {
	cases := []struct {
		field schema.Field
		check func(t *testing.T, value any)
	}{
		{
			field: schema.Field{Name: "notes", Type: schema.TypeText},
			check: func(t *testing.T, value any) {
				assert.Equal(t, "Sample notes", value)
			},
		},
		{
			field: schema.Field{Name: "qty", Type: schema.TypeNumber},
			check: func(t *testing.T, value any) {
				n, ok := value.(int)
				assert.True(t, ok)
				assert.GreaterOrEqual(t, n, 0)
				assert.Less(t, n, 1000)
			},
		},
		{
			field: schema.Field{Name: "issued", Type: schema.TypeDate},
			check: func(t *testing.T, value any) {
				assert.Equal(t, time.Now().Format("2006-01-02"), value)
			},
		},
		{
			field: schema.Field{Name: "paid", Type: schema.TypeBoolean},
			check: func(t *testing.T, value any) {
				assert.Equal(t, false, value)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.field.Name, func(t *testing.T) {
			tc.check(t, simulate(t, tc.field, "x.pdf"))
		})
	}
}

func TestSimulate_EveryFieldGetsExactlyOneValue(t *testing.T) {
	fields := schema.FieldList{}
	for i := 0; i < 5; i++ {
		fields = append(fields, schema.Field{Name: fmt.Sprintf("col%d", i), Type: schema.TypeText})
	}

	data := NewSimulator().Simulate(fields, "x.pdf")

	assert.Len(t, data, 5)
	for _, f := range fields {
		assert.Contains(t, data, f.Name)
	}
}
