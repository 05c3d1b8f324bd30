package sqlite

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// timeLayout matches the text SQLite itself stores for timestamps.
const timeLayout = "2006-01-02 15:04:05.999999999"

// stringify renders a scanned engine value as text. nil stays nil (NULL).
func stringify(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	case string:
		s = x
	case []byte:
		if utf8.Valid(x) {
			s = string(x)
		} else {
			s = "x'" + hex.EncodeToString(x) + "'"
		}
	case time.Time:
		if x.Location() == time.UTC {
			s = x.Format(timeLayout)
		} else {
			s = x.Format(timeLayout + "-07:00")
		}
	default:
		s = fmt.Sprint(x)
	}
	return &s
}
