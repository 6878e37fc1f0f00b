package evaluation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReferenceNumber generates a human-readable reference of the form
// SDA-YYYYMMDD-XXXXXXXX. The token is the first eight characters of a UUID,
// upper-cased, so collisions are negligible but not impossible: the store's
// unique constraint is the actual enforcement, and creation retries there.
func NewReferenceNumber(now time.Time) string {
	token := strings.ToUpper(uuid.NewString()[:8])
	return "SDA-" + now.Format("20060102") + "-" + token
}
