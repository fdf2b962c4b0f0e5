package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/fishtrack/internal/alert"
	"github.com/iliyamo/fishtrack/internal/client"
	"github.com/iliyamo/fishtrack/internal/views"
)

// Palette colors.
var (
	LightForeground = lipgloss.Color("#0f2a3d")
	LightPrimary    = lipgloss.Color("#0a7ea4")
	LightMuted      = lipgloss.Color("#687076")
	LightBorder     = lipgloss.Color("#d0d7de")

	DarkForeground = lipgloss.Color("#ecedee")
	DarkPrimary    = lipgloss.Color("#4fc3f7")
	DarkMuted      = lipgloss.Color("#9ba1a6")
	DarkBorder     = lipgloss.Color("#30363d")

	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#43a047")
	Warning     = lipgloss.Color("#ffb300")
	Info        = lipgloss.Color("#1e88e5")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{Foreground: LightForeground, Primary: LightPrimary, Muted: LightMuted, Border: LightBorder}
}

func DarkTheme() Theme {
	return Theme{Foreground: DarkForeground, Primary: DarkPrimary, Muted: DarkMuted, Border: DarkBorder, IsDark: true}
}

// ThemeByName returns the dark theme for "dark" and the light one otherwise.
func ThemeByName(name string) Theme {
	if name == ThemeDark {
		return DarkTheme()
	}
	return LightTheme()
}

func kindColor(k alert.Kind) lipgloss.Color {
	switch k {
	case alert.KindSuccess:
		return Success
	case alert.KindError:
		return Destructive
	case alert.KindWarning:
		return Warning
	}
	return Info
}

// RenderAlert draws an alert as a bordered box with its actions listed
// underneath.  A nil request renders as "".
func (t Theme) RenderAlert(r *alert.Request) string {
	if r == nil {
		return ""
	}
	accent := kindColor(r.Kind)
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(r.Title)
	body := lipgloss.NewStyle().Foreground(t.Foreground).Render(r.Message)

	var actions []string
	for _, a := range r.Actions {
		style := lipgloss.NewStyle().Foreground(t.Primary)
		switch a.Style {
		case alert.StyleCancel:
			style = style.Foreground(t.Muted)
		case alert.StyleDestructive:
			style = style.Foreground(Destructive).Bold(true)
		}
		actions = append(actions, style.Render("["+a.Text+"]"))
	}
	content := title + "\n" + body
	if len(actions) > 0 {
		content += "\n\n" + strings.Join(actions, "  ")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(content)
}

// RenderCards draws the catch list.
func (t Theme) RenderCards(cards []views.Card) string {
	if len(cards) == 0 {
		return lipgloss.NewStyle().Foreground(t.Muted).Render("Nenhuma captura registrada.")
	}
	card := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	head := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	muted := lipgloss.NewStyle().Foreground(t.Muted)

	out := make([]string, 0, len(cards))
	for _, c := range cards {
		lines := []string{
			head.Render(c.Species),
			fmt.Sprintf("Tamanho: %s  Peso: %s", c.Size, c.Weight),
			fmt.Sprintf("Data: %s  Clima: %s", c.Date, c.Weather),
		}
		if c.Description != "" {
			lines = append(lines, c.Description)
		}
		lines = append(lines, muted.Render(c.ID))
		out = append(out, card.Render(strings.Join(lines, "\n")))
	}
	return strings.Join(out, "\n")
}

// RenderPins draws map pins as a coordinate table.
func (t Theme) RenderPins(pins []views.Pin) string {
	if len(pins) == 0 {
		return lipgloss.NewStyle().Foreground(t.Muted).Render("Nenhuma captura no mapa.")
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	var b strings.Builder
	for _, p := range pins {
		fmt.Fprintf(&b, "%s %s (%.5f, %.5f)\n  %s\n", head.Render("●"), p.Title, p.Latitude, p.Longitude, p.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderAdvice draws the weather screen.
func (t Theme) RenderAdvice(r *client.AdviceReport) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", head.Render(r.Conditions.Place))
	fmt.Fprintf(&b, "%s\n", r.Conditions.Summary())
	fmt.Fprintf(&b, "Sensação: %.0f°C  Umidade: %.0f%%  Pressão: %.0f hPa  Vento: %.1f m/s\n",
		r.Conditions.FeelsLike, r.Conditions.Humidity, r.Conditions.Pressure, r.Conditions.WindSpeed)
	fmt.Fprintf(&b, "Fase da lua: %s\n", r.Forecast.LunarPhase)
	for _, s := range r.Forecast.Steps {
		fmt.Fprintf(&b, "  %s  %.0f°C  %s", s.Time.Local().Format("02/01 15:04"), s.Temperature, s.Description)
		if s.RainMM > 0 {
			fmt.Fprintf(&b, "  chuva %.1f mm", s.RainMM)
		}
		b.WriteString("\n")
	}
	kind := alert.KindWarning
	if r.Advice.Favorable {
		kind = alert.KindSuccess
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(kindColor(kind)).Render(r.Advice.Text))
	return b.String()
}
