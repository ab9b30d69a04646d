package schedule

import (
	"sort"
	"time"
)

// ForbiddenZone is a daily recurring window during which tasks must not
// start, e.g. "no starts 22:00-06:00" (StartHour=22, DurationHours=8).
type ForbiddenZone struct {
	StartHour     int
	DurationHours int
}

// graceSeconds is the promotion applied to the window containing `now`,
// per spec.md §4.5's forbidden-zone projection.
const graceSeconds = 60

type window struct {
	start float64 // seconds from now
	end   float64
}

// ProjectForbiddenZones enumerates every daily occurrence of the given
// zones across the horizon, clips them to [0, horizonSeconds], applies the
// grace-period rule to whichever window currently contains `now`, merges
// overlaps, and returns the alternating allowed/forbidden boundary array
// described in spec.md §4.5: [0, w0.start, w0.end, w1.start, ...,
// max(w_last.end, H)].
func ProjectForbiddenZones(now time.Time, loc *time.Location, horizonSeconds float64, zones []ForbiddenZone) []float64 {
	if len(zones) == 0 {
		return []float64{0, horizonSeconds}
	}

	nowLocal := now.In(loc)
	dayStart := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)

	lastDay := int(horizonSeconds/86400) + 1
	var windows []window
	for dayOffset := -2; dayOffset <= lastDay; dayOffset++ {
		base := dayStart.AddDate(0, 0, dayOffset)
		for _, z := range zones {
			wStart := base.Add(time.Duration(z.StartHour) * time.Hour)
			wEnd := wStart.Add(time.Duration(z.DurationHours) * time.Hour)

			startSec := wStart.Sub(now).Seconds()
			endSec := wEnd.Sub(now).Seconds()

			// now falls inside this occurrence: grant the grace period
			// and drop the already-elapsed portion.
			if startSec <= 0 && endSec > 0 {
				endSec += graceSeconds
				startSec = 0
			}

			if endSec <= 0 || startSec >= horizonSeconds {
				continue
			}
			if startSec < 0 {
				startSec = 0
			}
			if endSec > horizonSeconds {
				endSec = horizonSeconds
			}
			if endSec <= startSec {
				continue
			}
			windows = append(windows, window{start: startSec, end: endSec})
		}
	}

	if len(windows) == 0 {
		return []float64{0, horizonSeconds}
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end {
			if w.end > last.end {
				last.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}

	bounds := make([]float64, 0, 2*len(merged)+2)
	bounds = append(bounds, 0)
	for _, w := range merged {
		bounds = append(bounds, w.start, w.end)
	}
	tail := horizonSeconds
	if last := merged[len(merged)-1].end; last > tail {
		tail = last
	}
	bounds = append(bounds, tail)
	return bounds
}

// AllowedSpans extracts the even-indexed [start,end) allowed intervals
// from the boundary array ProjectForbiddenZones returns.
func AllowedSpans(bounds []float64) [][2]float64 {
	var spans [][2]float64
	for i := 0; i+1 < len(bounds); i += 2 {
		if bounds[i+1] > bounds[i] {
			spans = append(spans, [2]float64{bounds[i], bounds[i+1]})
		}
	}
	return spans
}
