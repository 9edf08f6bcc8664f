package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewTxRef builds a payment transaction reference of the form
// FEATURED_<property>_<unix seconds>_<8 random hex chars>.
func NewTxRef(propertyID string, now time.Time) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate tx ref: %w", err)
	}
	return fmt.Sprintf("FEATURED_%s_%d_%s", propertyID, now.Unix(), hex.EncodeToString(b)), nil
}
