package cache

import (
	"testing"
	"time"

	"github.com/pharmexa/formulary-api/formulary/entities"
)

func testPayload(drug string) Payload {
	return Payload{
		ValidatedDrug: drug,
		Chunks: []entities.Chunk{{
			ID:      "chunk-1",
			Content: drug + " dosage content",
			Metadata: entities.ChunkMetadata{
				DrugName: drug,
				Section:  entities.SectionDosage,
			},
		}},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewResponseCache(5 * time.Minute)
	payload := testPayload("PARACETAMOL")

	c.Put("what is the dosage?", "Paracetamol", "Paracetamol", payload)

	got, ok := c.Get("what is the dosage?", "Paracetamol")
	if !ok {
		t.Fatal("expected cache hit before expiry")
	}
	if got.ValidatedDrug != payload.ValidatedDrug || len(got.Chunks) != 1 {
		t.Errorf("payload mismatch: %+v", got)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	c := NewResponseCache(5 * time.Minute)
	c.Put("  What is the DOSAGE?  ", "Paracétamol", "", testPayload("PARACETAMOL"))

	// Same question and drug modulo case, whitespace, accents.
	if _, ok := c.Get("what is the dosage?", "paracetamol"); !ok {
		t.Error("expected hit on normalized-equal key")
	}
	if _, ok := c.Get("what is the dosage?", "ibuprofen"); ok {
		t.Error("different drug must not hit")
	}
	if _, ok := c.Get("a different question", "paracetamol"); ok {
		t.Error("different question must not hit")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewResponseCache(time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("dosage?", "Paracetamol", "Paracetamol", testPayload("PARACETAMOL"))

	if _, ok := c.Get("dosage?", "Paracetamol"); !ok {
		t.Fatal("expected hit before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("dosage?", "Paracetamol"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestCacheDualKeyWrite(t *testing.T) {
	c := NewResponseCache(5 * time.Minute)

	// A follow-up without an explicit drug resolves to Paracetamol. A later
	// identical question naming the drug explicitly should hit too.
	c.Put("side effects?", "", "Paracetamol", testPayload("PARACETAMOL"))

	if _, ok := c.Get("side effects?", ""); !ok {
		t.Error("expected hit under the request key")
	}
	if _, ok := c.Get("side effects?", "Paracetamol"); !ok {
		t.Error("expected hit under the resolved-drug key")
	}
}

func TestCacheLazyEvictionOnWrite(t *testing.T) {
	c := NewResponseCache(time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("first question", "DrugA", "DrugA", testPayload("DRUGA"))
	c.Put("second question", "DrugB", "DrugB", testPayload("DRUGB"))

	current = current.Add(2 * time.Minute)

	// The write sweeps both expired entries, then stores the new one.
	c.Put("third question", "DrugC", "DrugC", testPayload("DRUGC"))

	c.mu.RLock()
	stored := len(c.entries)
	c.mu.RUnlock()
	if stored != 1 {
		t.Errorf("expected expired entries swept on write, have %d stored", stored)
	}
}
