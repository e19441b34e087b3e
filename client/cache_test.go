package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu          sync.Mutex
	listCalls   int
	updateCalls int
	deleteCalls int

	listFn   func(ctx context.Context, call int, f Filter) (ListResult, error)
	updateFn func(ctx context.Context, id, statusID int64) error
	deleteFn func(ctx context.Context, ids []int64) error
}

func (a *fakeAPI) List(ctx context.Context, f Filter) (ListResult, error) {
	a.mu.Lock()
	a.listCalls++
	call := a.listCalls
	fn := a.listFn
	a.mu.Unlock()
	if fn == nil {
		return ListResult{}, nil
	}
	return fn(ctx, call, f)
}

func (a *fakeAPI) UpdateStatus(ctx context.Context, id, statusID int64) error {
	a.mu.Lock()
	a.updateCalls++
	fn := a.updateFn
	a.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id, statusID)
}

func (a *fakeAPI) BulkDelete(ctx context.Context, ids []int64) error {
	a.mu.Lock()
	a.deleteCalls++
	fn := a.deleteFn
	a.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, ids)
}

func (a *fakeAPI) calls() (int, int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listCalls, a.updateCalls, a.deleteCalls
}

var testStatuses = []StatusOption{
	{ID: 1, Nama: "Dalam Proses"},
	{ID: 2, Nama: "Diterima"},
}

func sampleResult() ListResult {
	return ListResult{
		TotalCount: 3,
		Data: []Record{
			{
				ID:      10,
				NamaHki: "Batik Tulis Lasem",
				Status:  &StatusOption{ID: 1, Nama: "Dalam Proses"},
				Kelas:   &KelasOption{ID: 24, Nama: "Kelas 24", Tipe: "barang"},
			},
			{ID: 11, NamaHki: "Kopi Gayo", Status: &StatusOption{ID: 1, Nama: "Dalam Proses"}},
		},
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached: %s", msg)
}

func TestGetCachesPerFilterKey(t *testing.T) {
	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			return sampleResult(), nil
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Search: "batik", Page: 1, PageSize: 50}

	first, err := qc.Get(context.Background(), f)
	require.NoError(t, err)
	second, err := qc.Get(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, first, second)

	listCalls, _, _ := api.calls()
	require.Equal(t, 1, listCalls, "identical filter must be served from cache")
}

func TestOptimisticStatusVisibleBeforeServerSettles(t *testing.T) {
	release := make(chan error)
	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			return sampleResult(), nil
		},
		updateFn: func(ctx context.Context, id, statusID int64) error {
			return <-release
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Page: 1}

	before, err := qc.Get(context.Background(), f)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- qc.UpdateStatusOptimistic(context.Background(), f, 10, 2)
	}()

	// Transform optimistis harus terlihat sebelum server menjawab.
	eventually(t, func() bool {
		res, ok := qc.Peek(f)
		return ok && res.Data[0].Status != nil && res.Data[0].Status.Nama == "Diterima"
	}, "optimistic status not applied")
	require.Equal(t, StatePending, qc.State(f))

	// Baris lain tidak tersentuh.
	res, _ := qc.Peek(f)
	require.Equal(t, "Dalam Proses", res.Data[1].Status.Nama)

	// Server gagal: cache kembali persis ke snapshot pre-mutasi.
	release <- errors.New("server menolak")
	require.Error(t, <-done)
	restored, ok := qc.Peek(f)
	require.True(t, ok)
	require.Equal(t, before, restored)
	require.Equal(t, StateSettledError, qc.State(f))
}

func TestOptimisticStatusSuccessRefetchesKey(t *testing.T) {
	serverTruth := sampleResult()
	serverTruth.Data[0].Status = &StatusOption{ID: 2, Nama: "Diterima"}

	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			if call == 1 {
				return sampleResult(), nil
			}
			return serverTruth, nil
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Page: 1}

	_, err := qc.Get(context.Background(), f)
	require.NoError(t, err)

	require.NoError(t, qc.UpdateStatusOptimistic(context.Background(), f, 10, 2))

	res, ok := qc.Peek(f)
	require.True(t, ok)
	require.Equal(t, serverTruth, res, "cache must hold server truth after settle")

	listCalls, updateCalls, _ := api.calls()
	require.Equal(t, 2, listCalls, "success must invalidate and refetch the key")
	require.Equal(t, 1, updateCalls)
	require.Equal(t, StateSettledSuccess, qc.State(f))
}

func TestDeleteOptimisticRemovesRowsAndDecrementsTotal(t *testing.T) {
	release := make(chan error)
	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			return sampleResult(), nil
		},
		deleteFn: func(ctx context.Context, ids []int64) error {
			return <-release
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Page: 1}

	before, err := qc.Get(context.Background(), f)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- qc.DeleteOptimistic(context.Background(), f, 10)
	}()

	eventually(t, func() bool {
		res, ok := qc.Peek(f)
		return ok && len(res.Data) == 1
	}, "optimistic delete not applied")

	res, _ := qc.Peek(f)
	require.EqualValues(t, 2, res.TotalCount, "total must drop by number of removed rows")
	require.EqualValues(t, 11, res.Data[0].ID)

	release <- errors.New("server menolak")
	require.Error(t, <-done)
	restored, _ := qc.Peek(f)
	require.Equal(t, before, restored)
}

func TestMutationCancelsInFlightFetch(t *testing.T) {
	fetchStarted := make(chan struct{})
	firstCancelled := make(chan struct{})

	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			if call == 1 {
				close(fetchStarted)
				<-ctx.Done()
				close(firstCancelled)
				return ListResult{}, ctx.Err()
			}
			return sampleResult(), nil
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Page: 1}

	getDone := make(chan struct{})
	go func() {
		defer close(getDone)
		_, _ = qc.Get(context.Background(), f)
	}()

	<-fetchStarted
	require.NoError(t, qc.UpdateStatusOptimistic(context.Background(), f, 10, 2))

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight fetch was not cancelled by the mutation")
	}
	<-getDone

	// Setelah settle, cache berisi hasil refetch, bukan hasil baca basi.
	res, ok := qc.Peek(f)
	require.True(t, ok)
	require.Equal(t, sampleResult(), res)
}

func TestUpdateStatusRejectsUnknownStatusOption(t *testing.T) {
	api := &fakeAPI{}
	qc := NewQueryCache(api, testStatuses)
	err := qc.UpdateStatusOptimistic(context.Background(), Filter{}, 10, 99)
	require.Error(t, err)
	_, updateCalls, _ := api.calls()
	require.Equal(t, 0, updateCalls, "server must not be called for an unknown status option")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	api := &fakeAPI{
		listFn: func(ctx context.Context, call int, f Filter) (ListResult, error) {
			return sampleResult(), nil
		},
	}
	qc := NewQueryCache(api, testStatuses)
	f := Filter{Page: 1}

	_, err := qc.Get(context.Background(), f)
	require.NoError(t, err)
	qc.Invalidate(f)
	_, err = qc.Get(context.Background(), f)
	require.NoError(t, err)

	listCalls, _, _ := api.calls()
	require.Equal(t, 2, listCalls)
}
