package export

import (
	"strings"
	"unicode"

	"github.com/yuya1213/dental-clinic-app/internal/clinicdiag"
)

const filenamePrefix = "診断結果"

// Filename names the artifact 診断結果_<clinic>_<YYYY-MM-DD>.<ext>. The same
// record and kind always give the same name.
func Filename(rec clinicdiag.Record, kind Kind) string {
	date := rec.ClinicInfo.Date
	if date.IsZero() && !rec.CreatedAt.IsZero() {
		date = clinicdiag.DateOf(rec.CreatedAt)
	}
	name := filenamePrefix + "_" + sanitize(rec.ClinicInfo.ClinicName)
	if !date.IsZero() {
		name += "_" + date.String()
	}
	return name + "." + kind.Ext()
}

// sanitize replaces characters that are unsafe in file names on common
// filesystems and collapses whitespace.
func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r), unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "clinic"
	}
	return out
}
