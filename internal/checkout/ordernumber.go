package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns ORD-<unix millis>-<6 upper-case hex chars>.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// ItemKey is the idempotency key of one order line.
func ItemKey(orderNumber string, productID int64) string {
	return orderNumber + "-" + strconv.FormatInt(productID, 10)
}
