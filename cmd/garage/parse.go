package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/validation"
)

const dateLayout = "2006-01-02"

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 0)
	if err != nil || id == 0 {
		return 0, validation.New("id", fmt.Sprintf("invalid id %q", s))
	}
	return uint(id), nil
}

// parseDate reads YYYY-MM-DD in local time. Empty input yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, validation.New(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field))
	}
	return t, nil
}

// parseServiceLine reads "description:parts:labor". Without two trailing costs
// the whole line is the description and both costs are zero.
func parseServiceLine(line string) (models.Service, error) {
	parts := strings.Split(line, ":")
	var costs []string
	if len(parts) >= 3 {
		costs = parts[len(parts)-2:]
		parts = parts[:len(parts)-2]
	}
	desc := strings.TrimSpace(strings.Join(parts, ":"))
	var amounts [2]float64
	for i, c := range costs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Service{}, validation.New("service", fmt.Sprintf("service %q: cost %q is not a number", line, c))
		}
		amounts[i] = v
	}
	return models.NewService(desc, amounts[0], amounts[1]), nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
