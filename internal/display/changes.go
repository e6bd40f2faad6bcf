package display

import (
	"fmt"
	"slices"

	"go-fm-rds/internal/rds"
)

// Changes lists the fields of cur that differ from prev, formatted for the
// log. Partially received names and texts are reported as they fill in.
// With rbds set, program types use the North American names and the PI code
// is followed by its call sign.
func Changes(prev, cur rds.Data, rbds bool) []string {
	var out []string
	if cur.HasPI && (!prev.HasPI || prev.PI != cur.PI) {
		pi := fmt.Sprintf("PI %04X", cur.PI)
		if call := rds.CallSign(cur.PI); call != "" && rbds {
			pi += " " + call
		}
		out = append(out, pi)
	}
	if cur.HasPI && (prev.PTY != cur.PTY || !prev.HasPI) {
		out = append(out, fmt.Sprintf("PTY %d %s", cur.PTY, rds.PTYName(cur.PTY, rbds)))
	}
	if cur.HasTA && (prev.TA != cur.TA || prev.TP != cur.TP || prev.MS != cur.MS || !prev.HasTA) {
		out = append(out, fmt.Sprintf("TP=%d TA=%d MS=%d", b2i(cur.TP), b2i(cur.TA), b2i(cur.MS)))
	}
	if cur.HasPS && prev.PS != cur.PS {
		out = append(out, fmt.Sprintf("PS %q", cur.ServiceName()))
	}
	if cur.HasRT && (prev.RT != cur.RT || prev.RTFlag != cur.RTFlag) {
		out = append(out, fmt.Sprintf("RT %q", cur.Radiotext()))
	}
	if cur.HasPTYN && prev.PTYN != cur.PTYN {
		out = append(out, fmt.Sprintf("PTYN %q", cur.PTYName()))
	}
	if cur.HasPIN && (!prev.HasPIN || prev.PIN != cur.PIN) {
		out = append(out, fmt.Sprintf("PIN day %d %02d:%02d", cur.PIN.Day, cur.PIN.Hour, cur.PIN.Minute))
	}
	if cur.HasClock && (!prev.HasClock || prev.Clock != cur.Clock) {
		out = append(out, "TIME "+cur.Clock.Time().Format("2006-01-02 15:04 -07:00"))
	}
	if cur.HasAF && (!prev.HasAF || !slices.Equal(prev.AF, cur.AF)) {
		out = append(out, "AF "+formatAF(cur.AF))
	}
	return out
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
