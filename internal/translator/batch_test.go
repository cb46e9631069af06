package translator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pofactory/po-translator/internal/merge"
)

func TestTranslateBatchOffline(t *testing.T) {
	o := quick(Config{Offline: true, Workers: 2}, Deps{})
	entries := []*merge.Entry{
		{Source: "Create new invoice"},
		{Source: "Please confirm the order"},
		{Source: ""},
		{Source: "Hello", Translation: "Bonjour"},
	}

	res := o.TranslateBatch(context.Background(), entries, "sale", false)
	assert.Equal(t, BatchResult{Total: 4, Translated: 2, Skipped: 2}, res)
	assert.Equal(t, "Créer nouveau facture", entries[0].Translation)
	assert.Equal(t, "Veuillez confirmer la commande", entries[1].Translation)
	assert.Equal(t, "Bonjour", entries[3].Translation)
}

func TestTranslateBatchEmpty(t *testing.T) {
	o := quick(Config{Offline: true}, Deps{})
	assert.Equal(t, BatchResult{}, o.TranslateBatch(context.Background(), nil, "", false))
}

func TestTranslateBatchProgress(t *testing.T) {
	o := quick(Config{Offline: true, Workers: 3}, Deps{})
	entries := []*merge.Entry{
		{Source: "Create invoice"},
		{Source: "New order"},
		{Source: "Total amount"},
		{Source: "Draft"},
	}

	var mu sync.Mutex
	var seen []int
	lastTotal := 0
	res := o.TranslateBatch(context.Background(), entries, "", false, WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, done)
		lastTotal = total
	}))

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Translated)
	assert.Equal(t, 4, lastTotal)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seen)
}

func TestTranslateBatchCountsFailures(t *testing.T) {
	client := &stubClient{err: errors.New("api down")}
	o := quick(Config{Workers: 2, MaxRetries: -1}, Deps{Client: client})
	entries := []*merge.Entry{
		{Source: "Alpha row"},
		{Source: "Beta row"},
		{Source: "Gamma row"},
	}

	res := o.TranslateBatch(context.Background(), entries, "", false)
	assert.Equal(t, BatchResult{Total: 3, Failed: 3}, res)
	assert.Equal(t, uint64(3), o.Stats().Errors)
	for _, entry := range entries {
		assert.Empty(t, entry.Translation)
	}
}

func TestTranslateBatchCancelledBeforeStart(t *testing.T) {
	client := &stubClient{}
	o := quick(Config{Workers: 2}, Deps{Client: client})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []*merge.Entry{{Source: "Draft order"}, {Source: "Total amount"}}
	res := o.TranslateBatch(ctx, entries, "", false)
	assert.Equal(t, BatchResult{Total: 2, Skipped: 2}, res)
	assert.Zero(t, client.calls.Load())
	assert.Empty(t, entries[0].Translation)
	assert.Empty(t, entries[1].Translation)
}

func TestTranslateBatchCancelMidFlight(t *testing.T) {
	client := &stubClient{delay: 200 * time.Millisecond}
	o := quick(Config{Workers: 1, MaxRetries: -1}, Deps{Client: client})

	entries := make([]*merge.Entry, 6)
	for i := range entries {
		entries[i] = &merge.Entry{Source: fmt.Sprintf("draft row %d", i)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	res := o.TranslateBatch(ctx, entries, "", false)
	assert.Equal(t, 6, res.Total)
	assert.Zero(t, res.Translated)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 6, res.Skipped)
	for _, entry := range entries {
		assert.Empty(t, entry.Translation)
	}
}

func TestTranslateBatchForceRetranslates(t *testing.T) {
	o := quick(Config{Offline: true, Workers: 2}, Deps{})
	entries := []*merge.Entry{
		{Source: "Create new invoice", Translation: "ancienne valeur"},
	}

	res := o.TranslateBatch(context.Background(), entries, "", true)
	assert.Equal(t, BatchResult{Total: 1, Translated: 1}, res)
	assert.Equal(t, "Créer nouveau facture", entries[0].Translation)
}
