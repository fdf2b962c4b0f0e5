package views

import (
	"fmt"

	"github.com/iliyamo/fishtrack/internal/model"
)

// Card is the list rendering of one record.
type Card struct {
	ID          string `json:"id"`
	Species     string `json:"species"`
	Size        string `json:"size"`
	Weight      string `json:"weight"`
	Date        string `json:"date"`
	Weather     string `json:"weather"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}

// Pin is the map rendering of one record.
type Pin struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Cards projects records into list cards, preserving order.
func Cards(records []model.Capture) []Card {
	out := make([]Card, 0, len(records))
	for _, c := range records {
		out = append(out, Card{
			ID:          c.ID,
			Species:     c.Species,
			Size:        model.FormatNumber(c.Size) + " cm",
			Weight:      model.FormatNumber(c.Weight) + " kg",
			Date:        c.Date,
			Weather:     c.Weather,
			Image:       c.Image,
			Description: c.Description,
		})
	}
	return out
}

// Pins projects records into map pins, preserving order.
func Pins(records []model.Capture) []Pin {
	out := make([]Pin, 0, len(records))
	for _, c := range records {
		out = append(out, Pin{
			ID:          c.ID,
			Latitude:    c.Latitude,
			Longitude:   c.Longitude,
			Title:       c.Species,
			Description: fmt.Sprintf("Peso: %s kg - Data: %s", model.FormatNumber(c.Weight), c.Date),
		})
	}
	return out
}
