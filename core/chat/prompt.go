package chat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/user"
)

const promptInstructions = `Eres un asistente especializado en deportes, con un enfoque profundo en natación.
Responde preguntas sobre natación, entrenamiento, técnicas, campeonatos, logros y biografías deportivas.
Brinda información sobre personas de la escuela de natación (maestros, alumnos, usuario actual), pero **no reveles datos sensibles** como contraseñas, correos electrónicos, teléfonos, direcciones o información privada.
Si la pregunta no está relacionada con natación, deportes o la comunidad escolar, responde amablemente que no puedes ayudar con ese tema.
Mantén un estilo claro, profesional, amigable y enfocado.
No inventes información; responde solo con lo que está en el contexto.`

type (
	// Person is the part of a user the assistant may talk about. Contact details never make it here.
	Person struct {
		ID          int            `json:"id"`
		Name        string         `json:"name"`
		LastName    string         `json:"last_name"`
		MothersName string         `json:"mothers_name,omitempty"`
		Role        string         `json:"role"`
		Age         int            `json:"age,omitempty"`
		Profile     []ProfileEntry `json:"profile,omitempty"`
	}

	ProfileEntry struct {
		Type    profile.Type `json:"type"`
		Content string       `json:"content"`
	}

	// Context is serialized into the prompt.
	Context struct {
		User  Person   `json:"user"`
		Users []Person `json:"users"`
	}
)

// NewContext sanitizes the current user and the people visible to them.
// entries are grouped by user; people without any entry are kept.
func NewContext(current user.User, users []user.User, entries []profile.Entry, now time.Time) Context {
	byUser := make(map[int][]ProfileEntry)
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], ProfileEntry{Type: e.Type, Content: e.Content})
	}

	toPerson := func(u user.User) Person {
		return Person{
			ID:          u.ID,
			Name:        u.Name,
			LastName:    u.LastName,
			MothersName: u.MothersName,
			Role:        u.Role.String(),
			Age:         u.Age(now),
			Profile:     byUser[u.ID],
		}
	}

	ctx := Context{User: toPerson(current), Users: make([]Person, 0, len(users))}
	for _, u := range users {
		ctx.Users = append(ctx.Users, toPerson(u))
	}
	sort.Slice(ctx.Users, func(i, j int) bool { return ctx.Users[i].ID < ctx.Users[j].ID })
	return ctx
}

// BuildPrompt embeds ctx and the question into the assistant instructions.
func BuildPrompt(ctx Context, message string) (string, error) {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(promptInstructions)
	fmt.Fprintf(&sb, "\n\nContexto:\n%s\n\nPregunta: %s\n\nRespuesta:", data, strings.TrimSpace(message))
	return sb.String(), nil
}
