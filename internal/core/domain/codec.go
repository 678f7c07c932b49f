package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeUpdate serialises an update for the remote store.
func EncodeUpdate(u Update) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encoding update %s: %w", u.ID, err)
	}
	return data, nil
}

// DecodeUpdate parses an update read from key. Failures are reported as a
// *DecodeError naming the key.
func DecodeUpdate(key string, data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, &DecodeError{Key: key, Err: err}
	}
	if u.ID == "" {
		return Update{}, &DecodeError{Key: key, Err: fmt.Errorf("missing id")}
	}
	return u, nil
}
