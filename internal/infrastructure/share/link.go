package share

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/metrics"
)

// Param is the query parameter carrying the shared form.
const Param = "city"

// ErrNoCity means the link carries nothing to restore.
var ErrNoCity = errors.New("link has no city parameter")

// payload mirrors the form fields a share link carries. Values are written as
// strings; numbers are accepted on read.
type payload struct {
	Name        entity.Scalar `json:"name"`
	Population  entity.Scalar `json:"population"`
	Terrain     entity.Scalar `json:"terrain"`
	EcoPriority entity.Scalar `json:"ecoPriority"`
	Size        entity.Scalar `json:"size"`
}

// Encode builds pageURL?city=<json> from the form. Any existing query or
// fragment on pageURL is dropped.
func Encode(pageURL string, form entity.PlanForm) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		metrics.IncShareLink("encode", "error")
		return "", fmt.Errorf("parse page url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""

	data, err := json.Marshal(payload{
		Name:        entity.Text(form.Name),
		Population:  entity.Text(strconv.Itoa(form.Population)),
		Terrain:     entity.Text(form.Terrain),
		EcoPriority: entity.Text(strconv.Itoa(form.EcoPriority)),
		Size:        entity.Text(strconv.Itoa(form.Size)),
	})
	if err != nil {
		metrics.IncShareLink("encode", "error")
		return "", fmt.Errorf("marshal share payload: %w", err)
	}

	metrics.IncShareLink("encode", "ok")
	return u.String() + "?" + Param + "=" + escapeComponent(string(data)), nil
}

// escapeComponent matches encodeURIComponent: spaces become %20, not +.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Decode reads the form back from a full link, a bare query string, or the
// raw parameter value.
func Decode(link string) (entity.PlanForm, error) {
	raw, err := cityParam(link)
	if err != nil {
		return entity.PlanForm{}, err
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// tolerate a value that was escaped twice
		unescaped, uerr := url.QueryUnescape(raw)
		if uerr != nil || json.Unmarshal([]byte(unescaped), &p) != nil {
			return entity.PlanForm{}, fmt.Errorf("%w: %v", entity.ErrMalformedShare, err)
		}
	}

	population, err := intField("population", p.Population)
	if err != nil {
		return entity.PlanForm{}, err
	}
	eco, err := intField("ecoPriority", p.EcoPriority)
	if err != nil {
		return entity.PlanForm{}, err
	}
	size, err := intField("size", p.Size)
	if err != nil {
		return entity.PlanForm{}, err
	}

	return entity.PlanForm{
		Name:        p.Name.String(),
		Population:  population,
		Terrain:     p.Terrain.String(),
		EcoPriority: eco,
		Size:        size,
	}, nil
}

func cityParam(link string) (string, error) {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "{") {
		return link, nil
	}
	query := link
	if u, err := url.Parse(link); err == nil && (u.Scheme != "" || strings.HasPrefix(link, "/") || u.RawQuery != "") {
		query = u.RawQuery
	}
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrMalformedShare, err)
	}
	raw := values.Get(Param)
	if raw == "" {
		return "", ErrNoCity
	}
	return raw, nil
}

func intField(name string, v entity.Scalar) (int, error) {
	if v.IsNum {
		return int(v.Num), nil
	}
	s := strings.TrimSpace(v.Str)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", entity.ErrMalformedShare, name, s)
	}
	return n, nil
}

// Restore decodes a link for prefilling the form. Malformed links are logged
// and ignored.
func Restore(link string, logger *slog.Logger) (entity.PlanForm, bool) {
	form, err := Decode(link)
	switch {
	case err == nil:
		metrics.IncShareLink("restore", "ok")
		return form, true
	case errors.Is(err, ErrNoCity):
		return entity.PlanForm{}, false
	default:
		metrics.IncShareLink("restore", "malformed")
		if logger != nil {
			logger.Error("Error loading shared city", "err", err)
		}
		return entity.PlanForm{}, false
	}
}
