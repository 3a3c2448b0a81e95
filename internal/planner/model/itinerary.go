package model

import "encoding/json"

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Meta carries the normalized trip facts extracted from the many key spellings
// model output uses for them.
type Meta struct {
	Destination string  `json:"destination,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Travelers   int     `json:"travelers,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// SummaryExtra is a freeform supplementary fact that did not map to a Meta
// field. Order is preserved so the rendering layer can show them as received.
type SummaryExtra struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Highlight is a single activity or sight within a day plan.
type Highlight struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Coordinates *Coordinates `json:"coordinates"`
}

// DayPlan is one day of the itinerary. Day numbers are unique and ascending
// after normalization.
type DayPlan struct {
	Day         int         `json:"day"`
	Theme       string      `json:"theme"`
	Description string      `json:"description,omitempty"`
	Highlights  []Highlight `json:"highlights"`
}

// Hotel is a recommended stay.
type Hotel struct {
	Name          string       `json:"name"`
	Location      string       `json:"location,omitempty"`
	PricePerNight float64      `json:"pricePerNight,omitempty"`
	Highlights    []string     `json:"highlights,omitempty"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
}

// Itinerary is the canonical itinerary document. All itinerary-shaped input is
// converted to this shape at the normalization boundary before being merged,
// stored or rendered. Unrecognized top-level keys survive round-trips in Extra
// so merge passthrough loses nothing.
type Itinerary struct {
	ID                 string         `json:"id,omitempty"`
	Destination        string         `json:"destination"`
	Meta               *Meta          `json:"meta"`
	SummaryExtras      []SummaryExtra `json:"summaryExtras"`
	DailyPlans         []DayPlan      `json:"dailyPlans"`
	RecommendedHotels  []Hotel        `json:"recommendedHotels"`
	TransportationTips []string       `json:"transportationTips"`
	Extra              map[string]any `json:"-"`
}

// knownItineraryKeys are the canonical top-level keys; everything else lands in Extra.
var knownItineraryKeys = []string{
	"id", "destination", "meta", "summaryExtras", "dailyPlans",
	"recommendedHotels", "transportationTips",
}

type itineraryAlias struct {
	ID                 string         `json:"id,omitempty"`
	Destination        string         `json:"destination"`
	Meta               *Meta          `json:"meta"`
	SummaryExtras      []SummaryExtra `json:"summaryExtras"`
	DailyPlans         []DayPlan      `json:"dailyPlans"`
	RecommendedHotels  []Hotel        `json:"recommendedHotels"`
	TransportationTips []string       `json:"transportationTips"`
}

// MarshalJSON folds Extra back into the top-level object.
func (i Itinerary) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(itineraryAlias{
		ID:                 i.ID,
		Destination:        i.Destination,
		Meta:               i.Meta,
		SummaryExtras:      i.SummaryExtras,
		DailyPlans:         i.DailyPlans,
		RecommendedHotels:  i.RecommendedHotels,
		TransportationTips: i.TransportationTips,
	})
	if err != nil {
		return nil, err
	}
	if len(i.Extra) == 0 {
		return base, nil
	}

	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range i.Extra {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a canonical itinerary document, collecting unknown
// top-level keys into Extra. Tolerant decoding of arbitrary shapes is not done
// here; that is the normalizer's job.
func (i *Itinerary) UnmarshalJSON(data []byte) error {
	var a itineraryAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, k := range knownItineraryKeys {
		delete(m, k)
	}

	*i = Itinerary{
		ID:                 a.ID,
		Destination:        a.Destination,
		Meta:               a.Meta,
		SummaryExtras:      a.SummaryExtras,
		DailyPlans:         a.DailyPlans,
		RecommendedHotels:  a.RecommendedHotels,
		TransportationTips: a.TransportationTips,
	}
	if len(m) > 0 {
		i.Extra = m
	}
	return nil
}

// Clone returns a deep copy via a JSON round-trip.
func (i *Itinerary) Clone() *Itinerary {
	if i == nil {
		return nil
	}
	b, err := json.Marshal(i)
	if err != nil {
		return nil
	}
	var out Itinerary
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return &out
}
