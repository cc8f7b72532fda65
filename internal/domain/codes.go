package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document code prefixes
const (
	BatchCodePrefix     = "BATCH"
	TransferCodePrefix  = "TRF"
	StocktakeCodePrefix = "STK"
)

// NewDocumentCode returns a human-readable code such as BATCH-20240131-9F2C1A
func NewDocumentCode(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102"), suffix)
}
