package api

import (
	"encoding/json"
	"fmt"

	"github.com/rawblock/abacus/internal/domain"
)

// entryPayload is the wire shape a typist's client posts for one entry:
// kind picks the PollingStationResults variant, data is that variant's
// JSON body. Mirrors store.encodeResults/decodeResults's discriminated
// union, one layer up at the HTTP boundary instead of the JSONB column.
type entryPayload struct {
	UserID      int64           `json:"user_id"`
	Kind        string          `json:"kind"`
	Data        json.RawMessage `json:"data"`
	Progress    int             `json:"progress"`
	ClientState string          `json:"client_state"`
}

func decodeEntryResults(kind string, raw json.RawMessage) (domain.PollingStationResults, error) {
	switch kind {
	case "cso_first":
		var v domain.CSOFirstSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "cso_next":
		var v domain.CSONextSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "dso_first":
		var v domain.DSOFirstSession
		err := json.Unmarshal(raw, &v)
		return v, err
	case "dso_next":
		var v domain.DSONextSession
		err := json.Unmarshal(raw, &v)
		return v, err
	default:
		return nil, fmt.Errorf("api: unknown results kind %q", kind)
	}
}

func encodeEntryResults(r domain.PollingStationResults) (string, json.RawMessage, error) {
	switch v := r.(type) {
	case domain.CSOFirstSession:
		raw, err := json.Marshal(v)
		return "cso_first", raw, err
	case domain.CSONextSession:
		raw, err := json.Marshal(v)
		return "cso_next", raw, err
	case domain.DSOFirstSession:
		raw, err := json.Marshal(v)
		return "dso_first", raw, err
	case domain.DSONextSession:
		raw, err := json.Marshal(v)
		return "dso_next", raw, err
	default:
		return "", nil, fmt.Errorf("api: unknown results variant %T", r)
	}
}
