package db

import (
	"context"
	"strings"
	"sync"

	"realty/models"
)

// MemoryShard is an in-process Shard used by tests and the "memory" store
// driver. It keeps documents in insertion order, like an unindexed
// collection scan would return them.
type MemoryShard struct {
	name string

	mu   sync.RWMutex
	docs []models.Property
}

func NewMemoryShard(name string) *MemoryShard {
	return &MemoryShard{name: name}
}

func (s *MemoryShard) Name() string {
	return s.name
}

func (s *MemoryShard) Insert(ctx context.Context, p models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.SourceDB = nil
	s.docs = append(s.docs, p)
	return nil
}

func (s *MemoryShard) FindByID(ctx context.Context, customID string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.docs {
		if s.docs[i].CustomID == customID {
			p := s.docs[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *MemoryShard) Find(ctx context.Context, f Filter) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []models.Property
	for i := range s.docs {
		if matches(&s.docs[i], f) {
			results = append(results, s.docs[i])
		}
	}
	return results, nil
}

func (s *MemoryShard) Update(ctx context.Context, customID string, fields map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].CustomID == customID {
			applyFields(&s.docs[i], fields)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryShard) Delete(ctx context.Context, customID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].CustomID == customID {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryShard) EnsureIndexes(ctx context.Context) error {
	return nil
}

// Len reports the number of stored documents. Test helper.
func (s *MemoryShard) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func matches(p *models.Property, f Filter) bool {
	if f.CustomID != "" {
		return p.CustomID == f.CustomID
	}
	return containsFold(p.City, f.City) &&
		containsFold(p.State, f.State) &&
		containsFold(p.Type, f.Type) &&
		containsFold(p.Address, f.Address)
}

func containsFold(value, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}

// applyFields mirrors a $set on the known document fields. Unknown keys are
// ignored, which is stricter than mongo (it would grow the document); the
// coordinator only sends schema fields, so nothing is lost in tests.
func applyFields(p *models.Property, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "address":
			p.Address, _ = value.(string)
		case "city":
			p.City, _ = value.(string)
		case "state":
			p.State, _ = value.(string)
		case "zip_code":
			p.ZipCode = toInt(value)
		case "price":
			p.Price = toFloat(value)
		case "bedrooms":
			p.Bedrooms = toInt(value)
		case "bathrooms":
			p.Bathrooms = toFloat(value)
		case "square_footage":
			p.SquareFootage = toInt(value)
		case "type":
			p.Type, _ = value.(string)
		case "date_listed":
			p.DateListed, _ = value.(string)
		case "description":
			p.Description, _ = value.(string)
		case "images":
			if images, ok := value.([]string); ok {
				p.Images = images
			}
		case "custom_id":
			p.CustomID, _ = value.(string)
		case "created_by":
			p.CreatedBy, _ = value.(string)
		}
	}
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
