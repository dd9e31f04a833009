package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrocyber/internal/keyderive"
)

func TestNew(t *testing.T) {
	rec, err := New("  Vega ", "1990-03-15", "14:30", " Lyra Station ")
	require.NoError(t, err)
	assert.Equal(t, Record{
		Name:      "Vega",
		BirthDate: keyderive.Date{Year: 1990, Month: 3, Day: 15},
		BirthTime: keyderive.TimeOfDay{Hour: 14, Minute: 30},
		Place:     "Lyra Station",
	}, rec)

	key, err := rec.SecretKey()
	require.NoError(t, err)
	assert.Equal(t, "S5TH3O", key)
}

func TestNewErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		fields  [4]string
		wantErr error
	}{
		{"BlankName", [4]string{" ", "1990-03-15", "14:30", "Lyra"}, ErrMissingField},
		{"BlankPlace", [4]string{"Vega", "1990-03-15", "14:30", ""}, ErrMissingField},
		{"BadDate", [4]string{"Vega", "15/03/1990", "14:30", "Lyra"}, keyderive.ErrInvalidInput},
		{"BadTime", [4]string{"Vega", "1990-03-15", "2pm", "Lyra"}, keyderive.ErrInvalidInput},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.fields[0], tc.fields[1], tc.fields[2], tc.fields[3])
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
