// Command authcore-loadtest drives concurrent login, reauth and session
// checks through an authcore engine and prints latency percentiles.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
)

const loadPassword = "load-test-password"

// seededUser holds the newest tokens for one account. Reauth moves the
// remember entry to the new session token, so calls for the same user are
// serialized on mu.
type seededUser struct {
	mu       sync.Mutex
	username string
	token    string
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of users to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		memoryKB    = flag.Uint32("argon-memory", 8*1024, "argon2id memory in KB")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("load-test-secret")
	cfg.Password.Memory = *memoryKB
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	verifier, err := password.NewVerifier(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid password parameters: %v\n", err)
		os.Exit(2)
	}

	store := memory.New()
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithCredentialStore(store).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}

	seeded := make([]*seededUser, *users)
	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	for i := 0; i < *users; i++ {
		salt, err := verifier.NewSalt()
		if err != nil {
			fmt.Fprintf(os.Stderr, "salt failed: %v\n", err)
			os.Exit(1)
		}
		name := fmt.Sprintf("user-%d", i)
		if _, err := store.Add(name, verifier.Derive(loadPassword, salt), salt); err != nil {
			fmt.Fprintf(os.Stderr, "add failed: %v\n", err)
			os.Exit(1)
		}
		seeded[i] = &seededUser{username: name}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		u := seeded[r.Intn(len(seeded))]
		u.mu.Lock()
		defer u.mu.Unlock()
		res, err := engine.Login(ctx, authcore.LoginRequest{
			Username: u.username,
			Password: loadPassword,
			Remember: true,
		})
		if err != nil {
			return err
		}
		u.token = res.Token
		return nil
	})

	reauthStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		u := seeded[r.Intn(len(seeded))]
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.token == "" {
			return errNoToken
		}
		res, err := engine.Reauth(ctx, u.token)
		if err != nil {
			return err
		}
		if res.Remembered {
			u.token = res.Token
		}
		return nil
	})

	activeStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		u := seeded[r.Intn(len(seeded))]
		u.mu.Lock()
		token := u.token
		u.mu.Unlock()
		if token == "" {
			return errNoToken
		}
		ok, err := engine.IsActive(ctx, token)
		if err == nil && !ok {
			return errInactive
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("reauth", reauthStats)
	printStats("is-active", activeStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("sessions created=%d remember issued=%d remember failed=%d\n",
		snap.Counters[authcore.MetricSessionCreated],
		snap.Counters[authcore.MetricRememberIssued],
		snap.Counters[authcore.MetricRememberWriteFailed],
	)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}
