package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Día de campeonato", want: "dia-de-campeonato"},
		{title: "  ¡Cierre de ALBERCA!  ", want: "cierre-de-alberca"},
		{title: "Tips -- para   nadar", want: "tips-para-nadar"},
		{title: "Niñas y niños", want: "ninas-y-ninos"},
		{title: "¡¡¡", want: "contenido"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}

	long := Slugify(strings.Repeat("brazada ", 40))
	assert.LessOrEqual(t, len(long), slugMaxLen)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestUniqueSlug(t *testing.T) {
	assert.Equal(t, "aviso", UniqueSlug("aviso", 7, false))
	assert.Equal(t, "aviso-7", UniqueSlug("aviso", 7, true))
}
