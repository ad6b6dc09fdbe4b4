// Package seed builds the initial entry list for a store from an etcd
// prefix. Leased keys keep their remaining lease time as TTL.
package seed

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrkv/pkg/kv"
)

const DefaultPrefix = "/zephyrkv/seed/"

func NewClient(endpoints []string) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
}

// Getter is satisfied by clientv3.KV.
type Getter interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// Leases is satisfied by clientv3.Lease.
type Leases interface {
	TimeToLive(ctx context.Context, id clientv3.LeaseID, opts ...clientv3.LeaseOption) (*clientv3.LeaseTimeToLiveResponse, error)
}

type Loader struct {
	KV     Getter
	Leases Leases
	Prefix string
	Logger *zap.Logger
}

// FromClient returns a Loader reading prefix through cli.
func FromClient(cli *clientv3.Client, prefix string, log *zap.Logger) *Loader {
	return &Loader{KV: cli, Leases: cli, Prefix: prefix, Logger: log}
}

// Load reads every key under the prefix and returns entries ordered by
// modification revision, so replaying them gives last-write-wins.
func (l *Loader) Load(ctx context.Context) ([]kv.Entry, error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	resp, err := l.KV.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("seed: get %q: %w", prefix, err)
	}

	kvs := slices.Clone(resp.Kvs)
	slices.SortStableFunc(kvs, func(a, b *mvccpb.KeyValue) int {
		return cmp.Compare(a.ModRevision, b.ModRevision)
	})

	ttls := make(map[clientv3.LeaseID]int64)
	entries := make([]kv.Entry, 0, len(kvs))
	for _, item := range kvs {
		key := strings.TrimPrefix(string(item.Key), prefix)

		var ttl time.Duration
		if item.Lease != int64(clientv3.NoLease) {
			secs, err := l.leaseTTL(ctx, clientv3.LeaseID(item.Lease), ttls)
			if err != nil {
				return nil, err
			}
			if secs <= 0 {
				log.Debug("skipping key with expired lease", zap.String("key", key), zap.Int64("lease", item.Lease))
				continue
			}
			ttl = time.Duration(secs) * time.Second
		}
		entries = append(entries, kv.Entry{Key: key, Value: string(item.Value), TTL: ttl})
	}

	log.Info("seed loaded",
		zap.String("prefix", prefix),
		zap.Int("keys", len(resp.Kvs)),
		zap.Int("entries", len(entries)),
		zap.Int("leases", len(ttls)),
	)
	return entries, nil
}

func (l *Loader) leaseTTL(ctx context.Context, id clientv3.LeaseID, cache map[clientv3.LeaseID]int64) (int64, error) {
	if secs, ok := cache[id]; ok {
		return secs, nil
	}
	if l.Leases == nil {
		return 0, fmt.Errorf("seed: key bound to lease %x but no lease client configured", int64(id))
	}
	resp, err := l.Leases.TimeToLive(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("seed: lease %x ttl: %w", int64(id), err)
	}
	cache[id] = resp.TTL
	return resp.TTL, nil
}
