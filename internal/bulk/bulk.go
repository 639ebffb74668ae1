// Package bulk, toplu silme gibi birbirinden bağımsız işlemleri eşzamanlı yürütür.
package bulk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

type Result struct {
	Basarili  int      `json:"basarili"`
	Basarisiz int      `json:"basarisiz"`
	Hatalar   []string `json:"hatalar"`
}

type failure struct {
	id  uint
	err error
}

// Run - fn her id için en fazla limit eşzamanlılıkla çağrılır. Bir id'nin hatası
// diğerlerini durdurmaz; sayılar ve hata listesi her zaman tüm id'leri kapsar.
func Run(ctx context.Context, ids []uint, limit int, fn func(ctx context.Context, id uint) error) Result {
	if limit < 1 {
		limit = 1
	}

	var (
		mu       sync.Mutex
		ok       int
		failures []failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := gctx.Err()
			if err == nil {
				err = fn(gctx, id)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, failure{id: id, err: err})
			} else {
				ok++
			}
			// hata grubu iptal etmesin diye nil
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].id < failures[j].id })
	res := Result{Basarili: ok, Basarisiz: len(failures), Hatalar: make([]string, 0, len(failures))}
	for _, f := range failures {
		res.Hatalar = append(res.Hatalar, fmt.Sprintf("ID %d: %v", f.id, f.err))
	}
	return res
}
