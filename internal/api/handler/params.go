package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

// queryParser collects every malformed query parameter into one error.
type queryParser struct {
	values url.Values
	errs   service.ValidationError
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (p *queryParser) str(key string) string {
	return p.values.Get(key)
}

func (p *queryParser) id(key string) *uuid.UUID {
	raw := p.values.Get(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		p.errs.Add(key, "must be a UUID")
		return nil
	}
	return &id
}

func (p *queryParser) date(key string) *models.Date {
	raw := p.values.Get(key)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		p.errs.Add(key, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &d
}

func (p *queryParser) timestamp(key string) *time.Time {
	raw := p.values.Get(key)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if d, err := models.ParseDate(raw); err == nil {
		return &d.Time
	}
	p.errs.Add(key, "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	return nil
}

func (p *queryParser) count(key string) uint64 {
	raw := p.values.Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.errs.Add(key, "must be a non-negative integer")
		return 0
	}
	return n
}

func (p *queryParser) flag(key string) *bool {
	raw := p.values.Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs.Add(key, "must be true or false")
		return nil
	}
	return &b
}

func (p *queryParser) err() error {
	return p.errs.Err()
}

func employeeFilter(r *http.Request) (models.EmployeeFilter, error) {
	p := newQueryParser(r)

	filter := models.EmployeeFilter{
		Query:      p.str("q"),
		LastName:   p.str("last_name"),
		FirstName:  p.str("first_name"),
		Patronymic: p.str("patronymic"),
		RegionID:   p.id("region"),
		NoteDate:   p.date("note_date"),
		NoteNumber: p.str("note_number"),
		Status:     models.EmployeeStatus(p.str("status")),
		CreatedOn:  p.date("created_on"),
		Ordering:   p.str("ordering"),
		Limit:      p.count("limit"),
		Offset:     p.count("offset"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		p.errs.Add("status", "must be one of: active, blocked")
	}

	return filter, p.err()
}
