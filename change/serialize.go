package change

import "encoding/json"

// MarshalSet serialises a Set to JSON.
func MarshalSet(s *Set) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSet deserialises a Set from JSON. The set is not validated;
// callers that accept external input should call Validate themselves.
func UnmarshalSet(data []byte) (*Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalRecord serialises a single Record to JSON.
func MarshalRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord deserialises a single Record from JSON.
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
