package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ItineraryRequest accumulates what is known about the user's trip wishes
// across turns. Unknown fields the model volunteers are kept in Extra.
type ItineraryRequest struct {
	Destination string         `json:"destination,omitempty"`
	StartDate   string         `json:"startDate,omitempty"`
	EndDate     string         `json:"endDate,omitempty"`
	Days        int            `json:"days,omitempty"`
	Budget      float64        `json:"budget,omitempty"`
	Companions  int            `json:"companions,omitempty"`
	Preferences []string       `json:"preferences,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Extra       map[string]any `json:"-"`
}

var knownRequestKeys = []string{
	"destination", "startDate", "endDate", "days", "budget",
	"companions", "travelers", "preferences", "notes",
}

// preferenceDelims splits a preference string the model returned as one blob.
var preferenceDelims = regexp.MustCompile(`[,，；;、]`)

// IsEmpty reports whether nothing is known yet.
func (r ItineraryRequest) IsEmpty() bool {
	return r.Destination == "" && r.StartDate == "" && r.EndDate == "" &&
		r.Days == 0 && r.Budget == 0 && r.Companions == 0 &&
		len(r.Preferences) == 0 && r.Notes == "" && len(r.Extra) == 0
}

// SanitizeRequest converts a loosely-shaped itineraryRequest object from the
// model into the typed request: numeric-looking fields are coerced, travelers
// aliases companions, and a delimiter-joined preference string becomes a list.
func SanitizeRequest(raw map[string]any) ItineraryRequest {
	var req ItineraryRequest
	if len(raw) == 0 {
		return req
	}

	req.Destination = asString(raw["destination"])
	req.StartDate = asString(raw["startDate"])
	req.EndDate = asString(raw["endDate"])
	req.Notes = asString(raw["notes"])
	req.Days = int(asNumber(raw["days"]))
	req.Budget = asNumber(raw["budget"])

	req.Companions = int(asNumber(raw["companions"]))
	if req.Companions == 0 {
		req.Companions = int(asNumber(raw["travelers"]))
	}

	switch prefs := raw["preferences"].(type) {
	case []any:
		for _, p := range prefs {
			if s := strings.TrimSpace(asString(p)); s != "" {
				req.Preferences = append(req.Preferences, s)
			}
		}
	case string:
		for _, p := range preferenceDelims.Split(prefs, -1) {
			if s := strings.TrimSpace(p); s != "" {
				req.Preferences = append(req.Preferences, s)
			}
		}
	}

	for k, v := range raw {
		if v == nil {
			continue
		}
		known := false
		for _, kk := range knownRequestKeys {
			if k == kk {
				known = true
				break
			}
		}
		if known {
			continue
		}
		if req.Extra == nil {
			req.Extra = map[string]any{}
		}
		req.Extra[k] = v
	}

	return req
}

// Merge overlays upd on r: present fields in upd override, absent ones keep
// the prior value. Extra maps are merged key-wise.
func (r ItineraryRequest) Merge(upd ItineraryRequest) ItineraryRequest {
	out := r
	if upd.Destination != "" {
		out.Destination = upd.Destination
	}
	if upd.StartDate != "" {
		out.StartDate = upd.StartDate
	}
	if upd.EndDate != "" {
		out.EndDate = upd.EndDate
	}
	if upd.Days != 0 {
		out.Days = upd.Days
	}
	if upd.Budget != 0 {
		out.Budget = upd.Budget
	}
	if upd.Companions != 0 {
		out.Companions = upd.Companions
	}
	if len(upd.Preferences) > 0 {
		out.Preferences = upd.Preferences
	}
	if upd.Notes != "" {
		out.Notes = upd.Notes
	}
	if len(upd.Extra) > 0 {
		merged := map[string]any{}
		for k, v := range r.Extra {
			merged[k] = v
		}
		for k, v := range upd.Extra {
			merged[k] = v
		}
		out.Extra = merged
	}
	return out
}

// MarshalJSON folds Extra into the object so stored requests keep every field.
func (r ItineraryRequest) MarshalJSON() ([]byte, error) {
	type alias ItineraryRequest
	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON runs the tolerant sanitizer so stored and wire requests come
// back typed.
func (r *ItineraryRequest) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = SanitizeRequest(m)
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asNumber coerces JSON numbers and numeric strings; everything else is 0.
func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
