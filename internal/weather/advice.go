package weather

// Advice texts shown to the user.
const (
	FavorableText   = "Clima e fase da lua favoráveis para pesca"
	UnfavorableText = "Condições desfavoráveis para pesca"
)

// Advice is the binary fishing-condition verdict.
type Advice struct {
	Favorable bool   `json:"favorable"`
	Text      string `json:"text"`
}

// Advise applies the fixed rule table: temperature strictly between 15
// and 30 °C, humidity under 80%, wind under 5 m/s, no rain and a
// favorable lunar phase.
func Advise(temp, humidity, wind float64, condition, lunarPhase string) Advice {
	phaseOK := lunarPhase == FullMoon || lunarPhase == NewMoon
	if temp > 15 && temp < 30 && humidity < 80 && wind < 5 && condition != "Rain" && phaseOK {
		return Advice{Favorable: true, Text: FavorableText}
	}
	return Advice{Favorable: false, Text: UnfavorableText}
}

// AdviseFor is Advise over a Conditions and Forecast pair.
func AdviseFor(c Conditions, f Forecast) Advice {
	return Advise(c.Temperature, c.Humidity, c.WindSpeed, c.Condition, f.LunarPhase)
}
