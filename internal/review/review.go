// Package review defines the wire format of a reviews page and the
// decoder that turns raw payloads into validated values.
package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/abelbrown/reviews/internal/errors"
)

// Review is one decoded review. Immutable once decoded.
type Review struct {
	FirstName string   `json:"first_name" validate:"required_without=LastName"`
	LastName  string   `json:"last_name"`
	Rating    int      `json:"rating" validate:"min=1,max=5"`
	Text      string   `json:"text"`
	Created   string   `json:"created"`
	AvatarURL string   `json:"avatar_url,omitempty" validate:"omitempty,url"`
	PhotoURLs []string `json:"photo_urls,omitempty" validate:"omitempty,dive,url"`
}

// Username joins the author name parts the way the list displays them.
func (r Review) Username() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Page is one fetch batch. Count is the server's total, not len(Items).
type Page struct {
	Items []Review `json:"items" validate:"dive"`
	Count int      `json:"count" validate:"min=0"`
}

var (
	vOnce sync.Once
	v     *validator.Validate
)

func validate() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())

		// Report json field names so decode errors match the payload.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
	})
	return v
}

// Decode parses and validates a raw page payload. Every failure is a
// KindDecode error.
func Decode(data []byte) (Page, error) {
	const op = errors.Op("review.Decode")

	if len(bytes.TrimSpace(data)) == 0 {
		return Page{}, errors.E(op, errors.KindDecode, "empty payload")
	}

	var p Page
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return Page{}, errors.Decode(op, err)
	}
	if err := validate().Struct(p); err != nil {
		return Page{}, errors.E(op, errors.KindDecode, describe(err), err)
	}
	if p.Items == nil {
		p.Items = []Review{}
	}
	return p, nil
}

// Encode renders a page in wire format.
func Encode(p Page) ([]byte, error) {
	if p.Items == nil {
		p.Items = []Review{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.E(errors.Op("review.Encode"), errors.KindIO, err)
	}
	return data, nil
}

// describe condenses validator output into "field: tag" pairs.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid page"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
