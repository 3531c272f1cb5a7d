package plans

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout of a catalog:
//
//	free_plan: Freemium
//	plans:
//	  - name: Freemium
//	    rank: 0
//	    interval: none
//	    features: [clients, devis, factures, planning]
//	    limits:
//	      clients: 10
//	      quotes: 3
//	      storage-megabytes: unlimited
type document struct {
	FreePlan string         `yaml:"free_plan"`
	Plans    []planDocument `yaml:"plans"`
}

type planDocument struct {
	Name        string           `yaml:"name"`
	Rank        int              `yaml:"rank"`
	Description string           `yaml:"description"`
	Price       Money            `yaml:"price"`
	Interval    BillingInterval  `yaml:"interval"`
	Features    []string         `yaml:"features"`
	Limits      map[string]quota `yaml:"limits"`
}

// quota accepts either a non-negative integer or the word "unlimited".
type quota int64

func (q *quota) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidQuota, value.Line)
	}
	raw := strings.TrimSpace(value.Value)
	if strings.EqualFold(raw, "unlimited") {
		*q = quota(Unlimited)
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: line %d: %q", ErrInvalidQuota, value.Line, value.Value)
	}
	*q = quota(n)
	return nil
}

// DecodeYAML parses a YAML catalog document.
// Unknown feature or resource identifiers are rejected so a typo cannot
// silently deny a feature to every subscriber.
func DecodeYAML(r io.Reader) (Snapshot, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode plan catalog: %w", err)
	}

	snap := Snapshot{FreePlan: doc.FreePlan, Plans: make([]Plan, 0, len(doc.Plans))}
	for _, pd := range doc.Plans {
		p := Plan{
			Name:        pd.Name,
			Rank:        pd.Rank,
			Description: pd.Description,
			Price:       pd.Price,
			Interval:    pd.Interval,
			Features:    make([]Feature, 0, len(pd.Features)),
			Limits:      make(map[Resource]int64, len(pd.Limits)),
		}
		if p.Interval == "" {
			p.Interval = BillingIntervalNone
		}
		for _, raw := range pd.Features {
			f, ok := ParseFeature(raw)
			if !ok {
				return Snapshot{}, fmt.Errorf("%w: plan %q: %q", ErrUnknownFeature, pd.Name, raw)
			}
			p.Features = append(p.Features, f)
		}
		for raw, q := range pd.Limits {
			res, ok := ParseResource(raw)
			if !ok {
				return Snapshot{}, fmt.Errorf("%w: plan %q: %q", ErrUnknownResource, pd.Name, raw)
			}
			p.Limits[res] = int64(q)
		}
		snap.Plans = append(snap.Plans, p)
	}

	return snap, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source reading a YAML catalog from path.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, errors.Join(ErrCatalogNotFound, err)
		}
		return Snapshot{}, err
	}
	return DecodeYAML(bytes.NewReader(data))
}
