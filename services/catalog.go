package services

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"realty/db"
	"realty/models"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	dateLayout = "2006-01-02"
)

// Catalog orchestrates listing operations across the shard set: validation,
// duplicate detection, primary + replica writes, fan-out search with
// reconciliation, and owner-gated update/delete. The shard slice order is
// canonical and must match the deployment's configured order, since
// placement indexes into it.
type Catalog struct {
	shards []db.Shard
	events Publisher
}

// NewCatalog builds a coordinator over the given shards. events may be nil;
// publishing is best-effort either way.
func NewCatalog(shards []db.Shard, events Publisher) *Catalog {
	return &Catalog{shards: shards, events: events}
}

// InsertReceipt reports where a listing ended up. Replicated distinguishes a
// fully replicated insert from a primary-only one: the replica write is
// best-effort and its failure does not fail the insert.
type InsertReceipt struct {
	CustomID   string `json:"custom_id"`
	Primary    string `json:"primary"`
	Replica    string `json:"replica"`
	Replicated bool   `json:"replicated"`
}

// SearchQuery holds the search filters. CustomID is an exact match and, when
// set, all other filters are ignored; the rest are case-insensitive
// substring filters. SortByPrice is "asc", "desc" or empty.
type SearchQuery struct {
	CustomID    string
	City        string
	State       string
	Type        string
	Address     string
	SortByPrice string
}

// Insert validates the listing, derives its partition key, checks for
// duplicates on every shard, writes to the primary and then best-effort to
// the replica.
//
// The duplicate check and the primary write are not atomic: two concurrent
// inserts deriving the same key can both pass the check. Callers retrying a
// failed insert should search by the derived key first.
func (c *Catalog) Insert(ctx context.Context, p models.Property, username string) (*InsertReceipt, error) {
	if problems := validateListing(&p); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}

	customID := DeriveKey(p.State, p.City, p.Address)
	for _, shard := range c.shards {
		existing, err := shard.FindByID(ctx, customID)
		if err != nil {
			return nil, &StorageError{Shard: shard.Name(), Op: "lookup", Err: err}
		}
		if existing != nil {
			return nil, &DuplicateError{CustomID: customID}
		}
	}

	p.CustomID = customID
	p.CreatedBy = username
	if p.Images == nil {
		p.Images = []string{}
	}

	primaryIdx := PrimaryShard(customID, len(c.shards))
	primary := c.shards[primaryIdx]
	if err := primary.Insert(ctx, p); err != nil {
		return nil, &StorageError{Shard: primary.Name(), Op: "insert", Err: err}
	}

	replica := c.shards[ReplicaShard(customID, len(c.shards), primaryIdx)]
	receipt := &InsertReceipt{
		CustomID: customID,
		Primary:  primary.Name(),
		Replica:  replica.Name(),
	}
	if err := replica.Insert(ctx, p); err != nil {
		// Primary copy is durable; the replica is advisory. Degraded
		// replication is reported through the receipt, not as a failure.
		log.Printf("replica write for %s failed on %s: %v", customID, replica.Name(), err)
	} else {
		receipt.Replicated = true
	}

	c.publish(ctx, EventListingCreated, customID, username)
	return receipt, nil
}

// Search queries every shard concurrently with the same filter and merges
// the results by custom_id. A record found on several shards is returned
// once, with SourceDB listing every shard it was found in; the copy returned
// comes from the earliest shard in canonical order. Without a sort the
// output keeps that merge order.
func (c *Catalog) Search(ctx context.Context, q SearchQuery) ([]models.Property, error) {
	filter := db.Filter{
		CustomID: q.CustomID,
		City:     q.City,
		State:    q.State,
		Type:     q.Type,
		Address:  q.Address,
	}

	perShard := make([][]models.Property, len(c.shards))
	shardErrs := make([]error, len(c.shards))
	var wg sync.WaitGroup
	for i, shard := range c.shards {
		wg.Add(1)
		go func(i int, shard db.Shard) {
			defer wg.Done()
			perShard[i], shardErrs[i] = shard.Find(ctx, filter)
		}(i, shard)
	}
	wg.Wait()

	// Reconciliation runs in canonical shard order regardless of which
	// goroutine finished first, so results are deterministic.
	var merged []models.Property
	position := make(map[string]int)
	for i, shard := range c.shards {
		if shardErrs[i] != nil {
			return nil, &StorageError{Shard: shard.Name(), Op: "find", Err: shardErrs[i]}
		}
		for _, p := range perShard[i] {
			if pos, seen := position[p.CustomID]; seen {
				merged[pos].SourceDB = append(merged[pos].SourceDB, shard.Name())
				continue
			}
			p.SourceDB = []string{shard.Name()}
			position[p.CustomID] = len(merged)
			merged = append(merged, p)
		}
	}

	switch q.SortByPrice {
	case SortAsc:
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Price < merged[j].Price })
	case SortDesc:
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Price > merged[j].Price })
	}
	return merged, nil
}

// Update applies a partial update to every copy of a listing. Only the
// creator may update, and ownership is checked against the primary copy
// only. Shards without a matching document are skipped; success means the
// update was authorized and attempted everywhere, not written everywhere.
func (c *Catalog) Update(ctx context.Context, customID string, updates map[string]interface{}, username string) error {
	if err := c.authorize(ctx, customID, username); err != nil {
		return err
	}
	coerced, err := coerceUpdates(updates)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, shard := range c.shards {
		wg.Add(1)
		go func(shard db.Shard) {
			defer wg.Done()
			matched, err := shard.Update(ctx, customID, coerced)
			if err != nil {
				log.Printf("update of %s failed on %s: %v", customID, shard.Name(), err)
				return
			}
			if !matched {
				log.Printf("listing %s not present on %s, skipped", customID, shard.Name())
			}
		}(shard)
	}
	wg.Wait()

	c.publish(ctx, EventListingUpdated, customID, username)
	return nil
}

// Delete removes a listing from every shard it can be found in. Only the
// creator may delete. Success requires that the delete was attempted on all
// shards and that at least one copy was actually removed.
func (c *Catalog) Delete(ctx context.Context, customID string, username string) error {
	if err := c.authorize(ctx, customID, username); err != nil {
		return err
	}

	deleted := make([]bool, len(c.shards))
	var wg sync.WaitGroup
	for i, shard := range c.shards {
		wg.Add(1)
		go func(i int, shard db.Shard) {
			defer wg.Done()
			ok, err := shard.Delete(ctx, customID)
			if err != nil {
				log.Printf("delete of %s failed on %s: %v", customID, shard.Name(), err)
				return
			}
			deleted[i] = ok
		}(i, shard)
	}
	wg.Wait()

	anyDeleted := false
	for _, ok := range deleted {
		anyDeleted = anyDeleted || ok
	}
	if !anyDeleted {
		return &StorageError{Op: "delete", Err: errNoCopiesRemoved}
	}

	c.publish(ctx, EventListingDeleted, customID, username)
	return nil
}

// InitIndexes creates the lookup indexes on every shard. Idempotent.
func (c *Catalog) InitIndexes(ctx context.Context) error {
	for _, shard := range c.shards {
		if err := shard.EnsureIndexes(ctx); err != nil {
			return &StorageError{Shard: shard.Name(), Op: "index", Err: err}
		}
		log.Printf("indexes ensured on %s", shard.Name())
	}
	return nil
}

// authorize enforces the single ownership rule: only the creator mutates.
// The check reads the primary copy only; a diverged replica's created_by is
// never consulted.
func (c *Catalog) authorize(ctx context.Context, customID, username string) error {
	primary := c.shards[PrimaryShard(customID, len(c.shards))]
	current, err := primary.FindByID(ctx, customID)
	if err != nil {
		return &StorageError{Shard: primary.Name(), Op: "lookup", Err: err}
	}
	if current == nil || current.CreatedBy != username {
		return &AuthorizationError{CustomID: customID, Username: username}
	}
	return nil
}

func (c *Catalog) publish(ctx context.Context, action, customID, username string) {
	if c.events == nil {
		return
	}
	event := ListingEvent{
		Action:    action,
		CustomID:  customID,
		Username:  username,
		Timestamp: time.Now().UTC(),
	}
	if err := c.events.PublishListingEvent(ctx, event); err != nil {
		log.Printf("failed to publish %s event for %s: %v", action, customID, err)
	}
}

// validateListing checks every required field and returns the full list of
// problems; callers see all of them at once.
func validateListing(p *models.Property) []string {
	var problems []string
	required := []struct {
		name  string
		value string
	}{
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"type", p.Type},
		{"date_listed", p.DateListed},
		{"description", p.Description},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			problems = append(problems, "missing required field: "+field.name)
		}
	}

	if p.ZipCode <= 0 {
		problems = append(problems, "field 'zip_code' must be a positive integer")
	}
	if p.Price <= 0 {
		problems = append(problems, "field 'price' must be a positive number")
	}
	if p.Bedrooms < 0 {
		problems = append(problems, "field 'bedrooms' must not be negative")
	}
	if p.Bathrooms < 0 {
		problems = append(problems, "field 'bathrooms' must not be negative")
	}
	if p.SquareFootage <= 0 {
		problems = append(problems, "field 'square_footage' must be a positive integer")
	}
	if p.Type != "" && !strings.EqualFold(p.Type, models.TypeSale) && !strings.EqualFold(p.Type, models.TypeRent) {
		problems = append(problems, "field 'type' must be 'sale' or 'rent'")
	}
	if p.DateListed != "" {
		if _, err := time.Parse(dateLayout, p.DateListed); err != nil {
			problems = append(problems, "field 'date_listed' must be an ISO date (YYYY-MM-DD)")
		}
	}
	return problems
}

// updateFieldKinds declares the coercion targets for numeric update fields.
var updateFieldKinds = map[string]string{
	"price":          "int",
	"bedrooms":       "int",
	"zip_code":       "int",
	"square_footage": "int",
	"bathrooms":      "float",
}

// coerceUpdates converts incoming update values to their declared types
// before any shard is written. Values arrive as JSON numbers (float64) or
// strings; anything that does not convert cleanly aborts the update.
func coerceUpdates(updates map[string]interface{}) (map[string]interface{}, error) {
	coerced := make(map[string]interface{}, len(updates))
	for field, value := range updates {
		kind, typed := updateFieldKinds[field]
		if !typed {
			coerced[field] = value
			continue
		}
		switch kind {
		case "int":
			n, ok := toIntValue(value)
			if !ok {
				return nil, &ConversionError{Field: field, Value: value}
			}
			coerced[field] = n
		case "float":
			f, ok := toFloatValue(value)
			if !ok {
				return nil, &ConversionError{Field: field, Value: value}
			}
			coerced[field] = f
		}
	}
	return coerced, nil
}

func toIntValue(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toFloatValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
