package checkpoint

import (
	"context"
	"slices"
	"strings"
	"sync"
)

var _ Repository = (*memoryRepo)(nil)

type memoryRepo struct {
	sync.Mutex

	ids  []string
	data map[string]Checkpoint
}

func NewMemoryRepository() Repository {
	return &memoryRepo{data: make(map[string]Checkpoint)}
}

func (r *memoryRepo) Save(_ context.Context, c Checkpoint) (Checkpoint, error) {
	c, err := prepare(c)
	if err != nil {
		return Checkpoint{}, err
	}

	r.Lock()
	defer r.Unlock()

	if _, ok := r.data[c.ID]; ok {
		return Checkpoint{}, ErrConflict
	}
	r.data[c.ID] = c.Clone()
	i, _ := slices.BinarySearchFunc(r.ids, c.ID, strings.Compare)
	r.ids = slices.Insert(r.ids, i, c.ID)

	return c, nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (Checkpoint, error) {
	r.Lock()
	defer r.Unlock()

	c, ok := r.data[id]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}

	return c.Clone(), nil
}

func (r *memoryRepo) Latest(_ context.Context) (Checkpoint, error) {
	r.Lock()
	defer r.Unlock()

	if len(r.ids) == 0 {
		return Checkpoint{}, ErrNotFound
	}

	return r.data[r.ids[len(r.ids)-1]].Clone(), nil
}

func (r *memoryRepo) List(_ context.Context, offset, limit uint64) (Page, error) {
	r.Lock()
	defer r.Unlock()

	total := uint64(len(r.ids))
	page := Page{Offset: offset, Limit: limit, Total: total, Checkpoints: []Checkpoint{}}
	if offset >= total {
		return page, nil
	}

	end := min(offset+limit, total)
	for _, id := range r.ids[offset:end] {
		page.Checkpoints = append(page.Checkpoints, r.data[id].Clone())
	}

	return page, nil
}
