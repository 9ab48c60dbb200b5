package config

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const MapsLink = "https://www.google.com/maps/search/?api=1&query=Mombasa+Marine+Park"

type Tier struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Event struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	DateTime time.Time `json:"date_time"`
	MapsLink string    `json:"maps_link"`
	Capacity int64     `json:"capacity"`
	Currency string    `json:"currency"`
	Tiers    []Tier    `json:"tiers"`
}

const DefaultEventName = "The Grey Pageant"

// Events returns the static catalog, priced from c.
func (c *Config) Events() []Event {
	eat := time.FixedZone("EAT", 3*60*60)
	return []Event{
		{
			ID:       slug.Make(DefaultEventName),
			Name:     DefaultEventName,
			Venue:    "Marine Park, Mombasa",
			DateTime: time.Date(2026, time.February, 13, 18, 0, 0, 0, eat),
			MapsLink: MapsLink,
			Capacity: c.Capacity,
			Currency: c.Currency,
			Tiers: []Tier{
				{Name: "Normal", Price: c.TierPriceNormal},
				{Name: "VIP", Price: c.TierPriceVIP},
				{Name: "VVIP", Price: c.TierPriceVVIP},
			},
		},
	}
}

// FindEvent looks an event up by slug or display name.
func (c *Config) FindEvent(idOrName string) (*Event, bool) {
	key := slug.Make(idOrName)
	for _, e := range c.Events() {
		if e.ID == key || strings.EqualFold(e.Name, idOrName) {
			return &e, true
		}
	}
	return nil, false
}
