package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/toolhub/cache"
)

func ExampleNewPool() {
	pool, err := cache.NewPool(cache.DefaultConfig())
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	// Miss - nothing cached yet
	_, ok := pool.Get(ctx, cache.NamespaceCity, "hangzhou_en")
	fmt.Println("cached before Put:", ok)

	pool.Put(ctx, cache.NamespaceCity, "hangzhou_en", "101210101")
	v, ok := pool.Get(ctx, cache.NamespaceCity, "hangzhou_en")
	fmt.Println("cached after Put:", ok, v)
	// Output:
	// cached before Put: false
	// cached after Put: true 101210101
}

func ExampleNamespace_Key() {
	at := time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)

	weather := cache.Namespace{Name: cache.NamespaceWeather, TTL: time.Hour, Bucket: cache.BucketHour}
	city := cache.Namespace{Name: cache.NamespaceCity, TTL: 24 * time.Hour}
	daily := cache.Namespace{Name: "archive", TTL: 24 * time.Hour, Bucket: cache.BucketDay}

	fmt.Println(weather.Key("101210101_en", at))
	fmt.Println(city.Key("hangzhou_en", at))
	fmt.Println(daily.Key("hangzhou", at))
	// Output:
	// weather_101210101_en_20261019_09
	// city_hangzhou_en
	// archive_hangzhou_20261019
}

func ExamplePool_NeedsRefresh() {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	pool, _ := cache.NewPool(cache.DefaultConfig(), cache.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	e := pool.Put(ctx, cache.NamespaceCity, "beijing_en", "101010100")

	now = now.Add(12 * time.Hour)
	fmt.Println("after 50% of ttl:", pool.NeedsRefresh(e, 0.8))

	now = now.Add(8 * time.Hour)
	fmt.Println("after 83% of ttl:", pool.NeedsRefresh(e, 0.8))
	// Output:
	// after 50% of ttl: false
	// after 83% of ttl: true
}

func ExamplePool_Put_eviction() {
	cfg := cache.Config{
		MaxEntries:       2,
		RefreshThreshold: 0.8,
		Namespaces:       []cache.Namespace{{Name: "city", TTL: time.Hour}},
	}
	pool, _ := cache.NewPool(cfg)
	ctx := context.Background()

	pool.Put(ctx, "city", "a", 1)
	pool.Put(ctx, "city", "b", 2)
	pool.Get(ctx, "city", "a") // a is now more recent than b
	pool.Put(ctx, "city", "c", 3)

	for _, subject := range []string{"a", "b", "c"} {
		_, ok := pool.Get(ctx, "city", subject)
		fmt.Printf("%s cached: %v\n", subject, ok)
	}
	fmt.Println("evictions:", pool.Stats().Evictions)
	// Output:
	// a cached: true
	// b cached: false
	// c cached: true
	// evictions: 1
}

func ExamplePool_Info() {
	pool, _ := cache.NewPool(cache.DefaultConfig())
	ctx := context.Background()

	pool.Put(ctx, cache.NamespaceCity, "hangzhou_en", "101210101")
	pool.Get(ctx, cache.NamespaceCity, "hangzhou_en")
	pool.Get(ctx, cache.NamespaceCity, "suzhou_en")

	fmt.Println(pool.Info())
	// Output:
	// === cache pool ===
	// weather: 0 entries, hit rate 0.00%
	// city: 1 entries, hit rate 50.00%
	// total: 1/50
	// evictions: 0
}

func ExampleLoader_Load() {
	pool, _ := cache.NewPool(cache.DefaultConfig())
	loader := cache.NewLoader(pool, 0.8, nil)
	ctx := context.Background()

	lookups := 0
	lookupCity := func(context.Context) (any, error) {
		lookups++
		return "101210101", nil
	}

	for range 3 {
		res, err := loader.Load(ctx, cache.NamespaceCity, "hangzhou_en", false, lookupCity)
		if err != nil {
			panic(err)
		}
		fmt.Println(res.Value, "cached:", res.Cached)
	}
	fmt.Println("upstream lookups:", lookups)
	// Output:
	// 101210101 cached: false
	// 101210101 cached: true
	// 101210101 cached: true
	// upstream lookups: 1
}
