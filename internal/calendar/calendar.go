// Package calendar projects favorited concursos onto a month timeline. Each
// concurso with both a publish date and a deadline becomes a horizontal bar
// clipped to the displayed month and annotated with a color class.
package calendar

import (
	"sort"
	"time"

	"concursos/models"
)

// Class is the color class of a timeline bar.
type Class string

const (
	ClassExpirado Class = "expirado"
	ClassHoje     Class = "hoje"
	ClassAviso    Class = "aviso"
	ClassNormal   Class = "normal"
)

// Bar is one concurso's span within the displayed month. Left and Width are
// percentages of the month row, derived from day-of-month over days-in-month.
type Bar struct {
	Concurso      models.Concurso `json:"concurso"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	DaysRemaining int             `json:"daysRemaining"`
	Class         Class           `json:"class"`
	Left          float64         `json:"left"`
	Width         float64         `json:"width"`
}

func dateOnly(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return dateOnly(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// daysRemaining counts calendar days between now and the deadline. Zero means
// the deadline is today. The dates are re-anchored in UTC so a DST transition
// inside the span cannot shift the count.
func daysRemaining(prazo, now time.Time) int {
	p := dateOnly(prazo)
	n := dateOnly(now)
	pu := time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, time.UTC)
	nu := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(pu.Sub(nu).Hours() / 24)
}

// classify picks the color class for a deadline. A deadline is expired only
// once its whole day has passed; a deadline date of today stays in the
// days-remaining urgency bands (0 today, 1-5 warning, >5 normal).
func classify(prazo, now time.Time) Class {
	if endOfDay(prazo).Before(now) {
		return ClassExpirado
	}
	days := daysRemaining(prazo, now)
	switch {
	case days <= 0:
		return ClassHoje
	case days <= 5:
		return ClassAviso
	default:
		return ClassNormal
	}
}

// Project builds the timeline bars for the given month. Concursos missing
// either date are never plotted, and concursos whose deadline date is fully in
// the past are excluded regardless of the month displayed. Bars are ordered by
// clipped start date.
func Project(concursos []models.Concurso, year int, month time.Month, now time.Time) []Bar {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()
	monthEnd := endOfDay(monthStart.AddDate(0, 0, daysInMonth-1))

	bars := []Bar{}
	for _, c := range concursos {
		if c.PrazoPropostas == nil || c.DataEnvio.IsZero() {
			continue
		}
		prazo := *c.PrazoPropostas
		if dateOnly(prazo).Before(dateOnly(now)) {
			continue
		}

		start := dateOnly(c.DataEnvio)
		end := endOfDay(prazo)

		if start.Before(monthStart) {
			start = monthStart
		}
		if end.After(monthEnd) {
			end = monthEnd
		}
		if start.After(end) {
			continue
		}

		startDay := start.Day()
		endDay := end.Day()

		bars = append(bars, Bar{
			Concurso:      c,
			Start:         start,
			End:           end,
			DaysRemaining: daysRemaining(prazo, now),
			Class:         classify(prazo, now),
			Left:          float64(startDay-1) / float64(daysInMonth) * 100,
			Width:         float64(endDay-startDay+1) / float64(daysInMonth) * 100,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Start.Before(bars[j].Start)
	})
	return bars
}
