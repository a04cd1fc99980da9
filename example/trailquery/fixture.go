package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	tf "github.com/echoface/trail_filter"
	"github.com/echoface/trail_filter/memstore"
)

type (
	// Fixture a store described in yaml:
	//
	//	fields: [f1, f2]
	//	filter: [[{field: f2, value: x0}]]
	//	trails:
	//	  - cookie: aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa
	//	    events:
	//	      - {ts: 1, values: {f1: a, f2: x0}}
	Fixture struct {
		Fields []string       `yaml:"fields"`
		Filter interface{}    `yaml:"filter"`
		Trails []TrailFixture `yaml:"trails"`
	}

	TrailFixture struct {
		Cookie string         `yaml:"cookie"`
		Events []EventFixture `yaml:"events"`
	}

	EventFixture struct {
		Timestamp uint64            `yaml:"ts"`
		Values    map[string]string `yaml:"values"`
	}
)

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture %s", path)
	}
	fixture := &Fixture{}
	if err = yaml.Unmarshal(data, fixture); err != nil {
		return nil, errors.Wrapf(err, "parse fixture %s", path)
	}
	if len(fixture.Fields) == 0 {
		return nil, errors.Errorf("fixture %s declares no field", path)
	}
	return fixture, nil
}

// ParseCookie accept a uuid, any other text is hashed into one
func ParseCookie(text string) tf.Cookie {
	if cookie, err := uuid.Parse(text); err == nil {
		return cookie
	}
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(text))
}

// BuildStore load every trail of the fixture into an in-memory store
func (f *Fixture) BuildStore() (*memstore.Store, error) {
	cons, err := memstore.NewConstructor(f.Fields...)
	if err != nil {
		return nil, err
	}
	for _, trail := range f.Trails {
		cookie := ParseCookie(trail.Cookie)
		for idx, ev := range trail.Events {
			if err = cons.AddValues(cookie, ev.Timestamp, ev.Values); err != nil {
				return nil, errors.Wrapf(err, "cookie %s event %d", trail.Cookie, idx)
			}
		}
	}
	return cons.Finalize()
}

// Expression the filter embedded in the fixture, empty when absent
func (f *Fixture) Expression() (tf.Expression, error) {
	return tf.ExpressionFromAny(f.Filter)
}
