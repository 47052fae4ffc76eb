package mssql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestEpochDaySecondSplit mirrors the arithmetic of EpochMillisToTimestamp
// and checks it lands on the same instant as a plain division, including
// past the INT seconds limit.
func TestEpochDaySecondSplit(t *testing.T) {
	t.Parallel()

	for _, ms := range []int64{
		1541990258796, // 2018-11-12 02:37:38
		2147483647999, // last INT second
		2147483648000,
		4102444800000, // 2100-01-01
		-1500,
	} {
		days := ms / 86400000
		secs := ms % 86400000 / 1000
		assert.LessOrEqual(t, days, int64(1<<31-1))
		assert.Less(t, secs, int64(86400))

		got := time.Unix(0, 0).UTC().AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
		assert.Equal(t, time.Unix(ms/1000, 0).UTC(), got, "ms=%d", ms)
	}
}
