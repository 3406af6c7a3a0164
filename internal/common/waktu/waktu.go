// Package waktu menentukan "hari ini" menurut zona waktu fasilitas.
package waktu

import "time"

const LayoutTanggal = "2006-01-02"

// Clock memberi waktu sekarang di zona fasilitas.
// Now bisa diganti di test untuk mensimulasikan hari lain.
type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	return Clock{Loc: loc, Now: time.Now}
}

func (c Clock) Sekarang() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if c.Loc == nil {
		return now()
	}
	return now().In(c.Loc)
}

// HariIni mengembalikan tanggal hari ini di zona fasilitas, format YYYY-MM-DD.
func (c Clock) HariIni() string {
	return c.Sekarang().Format(LayoutTanggal)
}

// Fixed membuat Clock yang selalu mengembalikan t.
func Fixed(t time.Time) Clock {
	return Clock{Loc: t.Location(), Now: func() time.Time { return t }}
}
