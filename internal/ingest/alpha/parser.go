// Package alpha reads Alpha Progression CSV exports into training log items.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Hack Squats · Machine · 8 reps[ · modifiers]"[;"warmups"]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupPart = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// "1:02 hr"
	durationText = regexp.MustCompile(`^(\d+):(\d{2})\s*hr?$`)
)

const columnHeader = "#;KG;REPS;RIR"

// Session is one workout of an export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is one movement of a session.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is one warmup or working set. Bodyweight-plus sets record only the
// added load in LoadKg.
type Set struct {
	Number         int
	LoadKg         float64
	BodyweightPlus bool
	Reps           int
	RIR            float64
	Warmup         bool
}

// parser accumulates sessions line by line.
type parser struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

func (p *parser) closeExercise() {
	if p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
		p.exercise = nil
	}
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		// Blank lines separate sessions.
		p.closeSession()

	case line == columnHeader:

	case sessionLine.MatchString(line):
		m := sessionLine.FindStringSubmatch(line)
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return err
		}
		p.session = &Session{Name: m[1], Date: date, Duration: m[3]}

	case exerciseLine.MatchString(line):
		m := exerciseLine.FindStringSubmatch(line)
		if p.session == nil {
			return fmt.Errorf("exercise without session: %q", line)
		}
		p.closeExercise()
		num, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
			Sets:       parseWarmups(m[6]),
		}

	case setLine.MatchString(line):
		m := setLine.FindStringSubmatch(line)
		if p.exercise == nil {
			return fmt.Errorf("set without exercise: %q", line)
		}
		num, _ := strconv.Atoi(m[1])
		load, bw := parseLoad(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number:         num,
			LoadKg:         load,
			BodyweightPlus: bw,
			Reps:           reps,
			RIR:            parseDecimal(m[4]),
		})

	default:
		// Notes and other metadata lines are ignored.
	}
	return nil
}

// Parse reads an Alpha Progression CSV export.
func Parse(r io.Reader) ([]Session, error) {
	var p parser
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if err := p.line(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate accepts single- and double-digit hours.
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse session date %q", s)
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · ..." into warmup sets.
func parseWarmups(s string) []Set {
	if s == "" {
		return nil
	}
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupPart.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		load, bw := parseLoad(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Number: num, LoadKg: load, BodyweightPlus: bw, Reps: reps, Warmup: true})
	}
	return sets
}

// parseLoad handles decimal commas and the "+35" bodyweight-plus notation.
func parseLoad(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}

// parseDuration turns "1:02 hr" into minutes.
func parseDuration(s string) (float64, bool) {
	m := durationText.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return float64(h*60 + min), true
}
