package sqlxrepos

import "github.com/google/uuid"

func newUUIDString() string {
	return uuid.New().String()
}

// isUUID guards ID lookups: postgres errors out on malformed uuid literals
// instead of returning no rows.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
