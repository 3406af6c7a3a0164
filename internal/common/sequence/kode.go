package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// LebarNomor adalah lebar minimum bagian angka pada kode antrian (A007).
const LebarNomor = 3

// Key menentukan counter mana yang dinaikkan. Scope memisahkan ruang nomor
// mesin APM dan loket pendaftaran walaupun prefix hurufnya sama.
type Key struct {
	Scope  string
	Prefix string
}

const (
	ScopeAPM        = "apm"
	ScopeRegistrasi = "registrasi"
)

func (k Key) String() string {
	return k.Scope + ":" + k.Prefix
}

// Ticket adalah hasil alokasi: nomor urut dan kode yang siap dicetak.
type Ticket struct {
	Nomor int
	Kode  string
}

// FormatKode menghasilkan huruf loket diikuti nomor yang di-pad nol.
// Nomor di atas 999 tidak dipotong (A1000).
func FormatKode(prefix string, nomor int) string {
	return fmt.Sprintf("%s%0*d", strings.ToUpper(prefix), LebarNomor, nomor)
}

// NormalizeKode merapikan input petugas: spasi dibuang, huruf dibesarkan.
func NormalizeKode(kode string) string {
	return strings.ToUpper(strings.TrimSpace(kode))
}

// ParseKode memecah kode menjadi huruf loket dan nomor.
func ParseKode(kode string) (prefix string, nomor int, ok bool) {
	kode = NormalizeKode(kode)
	if len(kode) < 2 || kode[0] < 'A' || kode[0] > 'Z' {
		return "", 0, false
	}
	n, err := strconv.Atoi(kode[1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return kode[:1], n, true
}
