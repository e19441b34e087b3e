package client

import (
	"context"
	"fmt"
	"sync"
)

// MutationState mengikuti siklus satu mutasi terhadap sebuah cache key.
type MutationState int

const (
	StateIdle MutationState = iota
	StatePending
	StateSettledSuccess
	StateSettledError
)

// QueryCache menyimpan hasil list per bentuk filter dan menerapkan mutasi
// secara optimistis: tampilkan dulu, rekonsiliasi dengan server belakangan.
//
// Aturan konsistensi:
//   - fetch yang sedang berjalan untuk sebuah key dibatalkan sebelum mutasi
//     menulis optimistis, supaya hasil baca basi tidak menimpa state optimistis;
//   - mutasi gagal mengembalikan isi cache persis seperti snapshot pre-mutasi
//     (full replace, bukan merge);
//   - mutasi sukses menginvalidasi key lalu refetch dari server.
type QueryCache struct {
	mu       sync.Mutex
	api      API
	statuses []StatusOption
	entries  map[string]*cacheEntry
}

type cacheEntry struct {
	// mutMu menserialisasi mutasi per key; snapshot/restore dua mutasi
	// terhadap key yang sama tidak boleh saling menyela.
	mutMu sync.Mutex

	result ListResult
	loaded bool
	state  MutationState

	// gen naik setiap mutasi dimulai; fetch dengan gen lama dibuang.
	gen    int64
	cancel context.CancelFunc
}

// NewQueryCache membuat cache; statuses adalah daftar opsi status yang sudah
// dimuat di awal (transform optimistis tidak menunggu respons server).
func NewQueryCache(api API, statuses []StatusOption) *QueryCache {
	return &QueryCache{
		api:      api,
		statuses: statuses,
		entries:  map[string]*cacheEntry{},
	}
}

func (qc *QueryCache) entry(key string) *cacheEntry {
	e, ok := qc.entries[key]
	if !ok {
		e = &cacheEntry{}
		qc.entries[key] = e
	}
	return e
}

// Get mengembalikan hasil dari cache, atau fetch ke server saat belum ada.
func (qc *QueryCache) Get(ctx context.Context, f Filter) (ListResult, error) {
	key := f.Key()

	qc.mu.Lock()
	e := qc.entry(key)
	if e.loaded {
		res := copyResult(e.result)
		qc.mu.Unlock()
		return res, nil
	}

	gen := e.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	qc.mu.Unlock()

	res, err := qc.api.List(fetchCtx, f)
	cancel()

	qc.mu.Lock()
	defer qc.mu.Unlock()

	if e.gen != gen {
		// Fetch ini dibatalkan/disusul mutasi; jangan timpa state optimistis.
		if e.loaded {
			return copyResult(e.result), nil
		}
		return ListResult{}, fmt.Errorf("fetch dibatalkan oleh mutasi")
	}
	e.cancel = nil
	if err != nil {
		return ListResult{}, err
	}
	e.result = res
	e.loaded = true
	return copyResult(e.result), nil
}

// Peek mengembalikan isi cache tanpa fetch, untuk render UI.
func (qc *QueryCache) Peek(f Filter) (ListResult, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[f.Key()]
	if !ok || !e.loaded {
		return ListResult{}, false
	}
	return copyResult(e.result), true
}

// State melaporkan fase mutasi terakhir pada sebuah key.
func (qc *QueryCache) State(f Filter) MutationState {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[f.Key()]
	if !ok {
		return StateIdle
	}
	return e.state
}

// UpdateStatusOptimistic mengganti status record id di cache key f seketika,
// lalu mengirim mutasi ke server. Gagal: cache kembali persis ke snapshot.
// Sukses: key diinvalidasi dan di-refetch agar sinkron dengan server.
func (qc *QueryCache) UpdateStatusOptimistic(ctx context.Context, f Filter, id, statusID int64) error {
	target, ok := qc.statusOption(statusID)
	if !ok {
		return fmt.Errorf("status id %d tidak ada di daftar opsi status", statusID)
	}

	transform := func(res *ListResult) {
		for i := range res.Data {
			if res.Data[i].ID == id {
				opt := target
				res.Data[i].Status = &opt
			}
		}
	}
	return qc.mutate(ctx, f, transform, func(mctx context.Context) error {
		return qc.api.UpdateStatus(mctx, id, statusID)
	})
}

// DeleteOptimistic membuang record ids dari cache key f seketika (total ikut
// turun), lalu mengirim bulk delete ke server.
func (qc *QueryCache) DeleteOptimistic(ctx context.Context, f Filter, ids ...int64) error {
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	transform := func(res *ListResult) {
		kept := res.Data[:0]
		removed := int64(0)
		for _, rec := range res.Data {
			if _, drop := idSet[rec.ID]; drop {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		res.Data = kept
		res.TotalCount -= removed
		if res.TotalCount < 0 {
			res.TotalCount = 0
		}
	}
	return qc.mutate(ctx, f, transform, func(mctx context.Context) error {
		return qc.api.BulkDelete(mctx, ids)
	})
}

// mutate menjalankan siklus Idle -> Pending -> Settled untuk satu key:
// batalkan fetch berjalan, snapshot, tulis optimistis, panggil server,
// lalu restore (error) atau invalidate+refetch (sukses).
func (qc *QueryCache) mutate(ctx context.Context, f Filter, transform func(*ListResult), call func(context.Context) error) error {
	key := f.Key()

	qc.mu.Lock()
	e := qc.entry(key)
	qc.mu.Unlock()

	e.mutMu.Lock()
	defer e.mutMu.Unlock()

	qc.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.state = StatePending

	hadData := e.loaded
	var snapshot ListResult
	if hadData {
		snapshot = copyResult(e.result)
		optimistic := copyResult(e.result)
		transform(&optimistic)
		e.result = optimistic
	}
	qc.mu.Unlock()

	err := call(ctx)

	qc.mu.Lock()
	if err != nil {
		if hadData {
			e.result = snapshot
		}
		e.state = StateSettledError
		qc.mu.Unlock()
		return err
	}
	e.loaded = false
	e.state = StateSettledSuccess
	qc.mu.Unlock()

	// Rekonsiliasi dengan server; kegagalan refetch tidak membatalkan
	// mutasi yang sudah sukses.
	_, _ = qc.Get(ctx, f)
	return nil
}

// Invalidate membuang isi cache sebuah key; fetch berikutnya ke server.
func (qc *QueryCache) Invalidate(f Filter) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if e, ok := qc.entries[f.Key()]; ok {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
		e.gen++
		e.loaded = false
	}
}

func (qc *QueryCache) statusOption(id int64) (StatusOption, bool) {
	for _, s := range qc.statuses {
		if s.ID == id {
			return s, true
		}
	}
	return StatusOption{}, false
}

// copyResult menyalin dalam: slice baru dan pointer lookup di-clone, supaya
// snapshot kebal terhadap transform optimistis sesudahnya.
func copyResult(in ListResult) ListResult {
	out := ListResult{TotalCount: in.TotalCount, Data: make([]Record, len(in.Data))}
	for i, rec := range in.Data {
		out.Data[i] = copyRecord(rec)
	}
	return out
}

func copyRecord(in Record) Record {
	out := in
	if in.Pemohon != nil {
		p := *in.Pemohon
		out.Pemohon = &p
	}
	if in.Jenis != nil {
		j := *in.Jenis
		out.Jenis = &j
	}
	if in.Status != nil {
		s := *in.Status
		out.Status = &s
	}
	if in.Pengusul != nil {
		g := *in.Pengusul
		out.Pengusul = &g
	}
	if in.Kelas != nil {
		k := *in.Kelas
		out.Kelas = &k
	}
	return out
}
