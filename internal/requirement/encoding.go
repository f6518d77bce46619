package requirement

import (
	"encoding/json"
	"errors"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
)

// encodeSchedule/decodeSchedule serialize a Schedule to the opaque blob
// format the catalog store persists it as. JSON, matching the rest of the
// codebase's ambient encoding choice — there is no wire-compatibility
// requirement with any external reader.
func encodeSchedule(s Schedule) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSchedule(data []byte) (Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound)
}
