// Package policy is the read-only policy directory: reference data the rule
// engine checks claims against. Lookups of unknown policy numbers return an
// error wrapping sentinel.ErrNotFound.
package policy

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

// Directory resolves policy numbers to records.
type Directory interface {
	Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error)
}

// InMemoryDirectory keeps policies in a map. It backs development setups that
// seed from a YAML file, and tests.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	policies map[string]models.PolicyRecord
}

func NewInMemory(records ...models.PolicyRecord) *InMemoryDirectory {
	d := &InMemoryDirectory{policies: make(map[string]models.PolicyRecord, len(records))}
	for _, r := range records {
		d.policies[normalize(r.Number)] = r
	}
	return d
}

// Put adds or replaces a policy.
func (d *InMemoryDirectory) Put(r models.PolicyRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.policies[normalize(r.Number)] = r
}

func (d *InMemoryDirectory) Lookup(ctx context.Context, policyNumber string) (models.PolicyRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.PolicyRecord{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.policies[normalize(policyNumber)]
	if !ok {
		return models.PolicyRecord{}, fmt.Errorf("policy %s: %w", policyNumber, sentinel.ErrNotFound)
	}
	return r, nil
}

// Records returns every policy, for seeding other backends.
func (d *InMemoryDirectory) Records() []models.PolicyRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.PolicyRecord, 0, len(d.policies))
	for _, r := range d.policies {
		out = append(out, r)
	}
	return out
}

type seedFile struct {
	Policies []models.PolicyRecord `yaml:"policies"`
}

// LoadSeed reads a YAML document of the form
//
//	policies:
//	  - number: "66777"
//	    coverage_limit: "50000.00"
//	    status: active
//	    valid_from: 2025-01-01
//	    valid_to: 2025-12-31
//	    insured_name: Lotta Dietz
func LoadSeed(r io.Reader) ([]models.PolicyRecord, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode policy seed: %w", err)
	}
	for i, p := range seed.Policies {
		if strings.TrimSpace(p.Number) == "" {
			return nil, fmt.Errorf("policy seed entry %d: number is required", i)
		}
		if p.ValidTo.Before(p.ValidFrom) {
			return nil, fmt.Errorf("policy %s: valid_to before valid_from", p.Number)
		}
		if p.Status == "" {
			seed.Policies[i].Status = models.PolicyActive
		}
	}
	return seed.Policies, nil
}

// LoadSeedFile is LoadSeed on a file path.
func LoadSeedFile(path string) ([]models.PolicyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

func normalize(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
