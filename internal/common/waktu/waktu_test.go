package waktu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHariIni_UsesFacilityZone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 20:30 UTC tanggal 15 sudah tanggal 16 di WIB
	utc := time.Date(2026, 10, 15, 20, 30, 0, 0, time.UTC)
	c := Clock{Loc: jakarta, Now: func() time.Time { return utc }}

	assert.Equal(t, "2026-10-16", c.HariIni())
	assert.Equal(t, jakarta, c.Sekarang().Location())
}

func TestFixed(t *testing.T) {
	ts := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-02", Fixed(ts).HariIni())
}
