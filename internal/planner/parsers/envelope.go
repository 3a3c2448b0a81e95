package parsers

import (
	"encoding/json"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// ParseEnvelope reads the final-answer envelope out of assistant content. The
// content passes through the tolerant object extraction first, so fences and
// surrounding prose are fine.
func ParseEnvelope(content string) (*model.Envelope, error) {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, errx.Parse(err, "re-encode extracted object")
	}

	var envelope model.Envelope
	if err := json.Unmarshal(b, &envelope); err != nil {
		return nil, errx.Parse(err, "model output does not match the reply envelope")
	}
	return &envelope, nil
}
