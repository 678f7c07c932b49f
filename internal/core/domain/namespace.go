package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserPlaceholder in an area name is replaced by the signed-in user ID.
const UserPlaceholder = "$USER_ID$"

// Namespace partitions updates by application, dataset and area.
// Writes go to WriteArea; reads merge every ReadAreas entry in order.
type Namespace struct {
	AppID     string   `toml:"app_id"`
	DataSet   string   `toml:"dataset"`
	WriteArea string   `toml:"write_area"`
	ReadAreas []string `toml:"read_areas"`
}

// Validate checks all parts of the namespace are present.
func (n Namespace) Validate() error {
	switch {
	case n.AppID == "":
		return fmt.Errorf("%w: app id is required", ErrInvalidInput)
	case n.DataSet == "":
		return fmt.Errorf("%w: dataset is required", ErrInvalidInput)
	case n.WriteArea == "":
		return fmt.Errorf("%w: write area is required", ErrInvalidInput)
	case len(n.ReadAreas) == 0:
		return fmt.Errorf("%w: at least one read area is required", ErrInvalidInput)
	}
	for _, part := range []string{n.AppID, n.DataSet} {
		if strings.Contains(part, "/") {
			return fmt.Errorf("%w: %q must not contain '/'", ErrInvalidInput, part)
		}
	}
	return nil
}

// AreaPrefix returns the key prefix for area, ending in '/'.
// The user placeholder is substituted with userID; an empty userID with a
// placeholder present returns ErrUnresolvedUserID.
func (n Namespace) AreaPrefix(area, userID string) (string, error) {
	resolved, err := ResolveArea(area, userID)
	if err != nil {
		return "", err
	}
	return n.AppID + "/" + n.DataSet + "/" + resolved + "/", nil
}

// WriteKey returns the object key for storing id at time now.
func (n Namespace) WriteKey(id, userID string, now time.Time) (string, error) {
	prefix, err := n.AreaPrefix(n.WriteArea, userID)
	if err != nil {
		return "", err
	}
	return prefix + UpdateKey(id, now), nil
}

// ResolveArea substitutes the user placeholder in area.
func ResolveArea(area, userID string) (string, error) {
	if !strings.Contains(area, UserPlaceholder) {
		return area, nil
	}
	if userID == "" {
		return "", fmt.Errorf("%w: area %q", ErrUnresolvedUserID, area)
	}
	return strings.ReplaceAll(area, UserPlaceholder, userID), nil
}

// UpdateKey is the leaf object name for an update: <unix-millis>-<id>.
// The timestamp prefix gives ascending write order within an area.
func UpdateKey(id string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + id
}
