package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/db"
)

// The simulator hammers the admin booking endpoint with concurrent,
// deliberately colliding reservation windows, then audits the database for
// overlapping active bookings. The audit must always come back zero: the
// exclusion constraint admits at most one of any pair of racing writers.

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	AdminUsername string
	AdminPassword string
	UserLimit     int
	PostgresDSN   string
}

type DataPool struct {
	Usernames []string
	SlotNames []string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	token   string
	metrics OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

	log.Printf("config: duration=%s workers=%d base_url=%s",
		cfg.Duration, cfg.Workers, cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d users, %d slots", len(dataPool.Usernames), len(dataPool.SlotNames))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	if err := sim.login(); err != nil {
		log.Fatalf("admin login: %v", err)
	}

	sim.Run()
	sim.PrintReport()

	overlaps, err := countActiveOverlaps(context.Background(), pgPool)
	if err != nil {
		log.Fatalf("overlap audit: %v", err)
	}
	fmt.Printf("\nOverlap audit: %d overlapping active booking pairs\n", overlaps)
	if overlaps != 0 {
		log.Fatalf("INVARIANT VIOLATED: found %d overlapping active booking pairs", overlaps)
	}
	log.Println("invariant holds: no overlapping active bookings")
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		AdminUsername: getEnv("SIM_ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("SIM_ADMIN_PASSWORD", "admin123"),
		UserLimit:     getInt("SIM_USER_LIMIT", 500),
		PostgresDSN:   baseCfg.PostgresDSN,
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT username FROM users WHERE role = 'user' LIMIT $1
	`, cfg.UserLimit)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		dp.Usernames = append(dp.Usernames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := pool.Query(ctx, `SELECT slot_name FROM parking_slots ORDER BY slot_name`)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var name string
		if err := slotRows.Scan(&name); err != nil {
			return nil, err
		}
		dp.SlotNames = append(dp.SlotNames, name)
	}
	if err := slotRows.Err(); err != nil {
		return nil, err
	}

	if len(dp.Usernames) == 0 || len(dp.SlotNames) == 0 {
		return nil, fmt.Errorf("empty data pool, run cmd/seed first")
	}

	return dp, nil
}

func (s *Simulator) login() error {
	body, _ := json.Marshal(map[string]any{
		"username": s.config.AdminUsername,
		"password": s.config.AdminPassword,
	})

	resp, err := s.client.Post(s.config.APIBaseURL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login returned %d: %s", resp.StatusCode, msg)
	}

	for _, c := range resp.Cookies() {
		if c.Name == "parking_session" {
			s.token = c.Value
			return nil
		}
	}

	return fmt.Errorf("login response carried no session cookie")
}

func (s *Simulator) Run() {
	deadline := time.Now().Add(s.config.Duration)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))

			for time.Now().Before(deadline) {
				s.attemptBooking(rng)
			}
		}(i)
	}

	wg.Wait()
}

// attemptBooking posts a booking over a small set of colliding windows so
// that conflicts are frequent.
func (s *Simulator) attemptBooking(rng *rand.Rand) {
	username := s.pool.Usernames[rng.Intn(len(s.pool.Usernames))]
	slotName := s.pool.SlotNames[rng.Intn(len(s.pool.SlotNames))]

	day := time.Now().AddDate(0, 0, 1+rng.Intn(3)).Format("2006-01-02")
	startHour := 6 + rng.Intn(12)
	span := 1 + rng.Intn(3)

	payload := map[string]any{
		"username":   username,
		"slot_name":  slotName,
		"entry_date": day,
		"entry_time": fmt.Sprintf("%02d:00", startHour),
		"exit_date":  day,
		"exit_time":  fmt.Sprintf("%02d:00", startHour+span),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, s.config.APIBaseURL+"/api/dashboard/bookings", bytes.NewReader(body))
	if err != nil {
		s.metrics.Record(0, false, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "parking_session", Value: s.token})

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		s.metrics.Record(latency, true, false)
	case http.StatusBadRequest:
		// the dashboard endpoint reports conflicts as 400s
		s.metrics.Record(latency, false, true)
	default:
		s.metrics.Record(latency, false, false)
	}
}

func (s *Simulator) PrintReport() {
	avg, min, max, p50, p95 := s.metrics.Stats()

	fmt.Println("\n=== Booking race report ===")
	fmt.Printf("total:    %d\n", atomic.LoadInt64(&s.metrics.Total))
	fmt.Printf("admitted: %d\n", atomic.LoadInt64(&s.metrics.Success))
	fmt.Printf("conflict: %d\n", atomic.LoadInt64(&s.metrics.Conflict))
	fmt.Printf("error:    %d\n", atomic.LoadInt64(&s.metrics.Error))
	fmt.Printf("latency:  avg=%s min=%s max=%s p50=%s p95=%s\n", avg, min, max, p50, p95)
}

// countActiveOverlaps counts pairs of active bookings on the same slot whose
// half-open windows intersect. Anything other than zero is a bug.
func countActiveOverlaps(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var n int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bookings a
		JOIN bookings b
		  ON a.slot_id = b.slot_id
		 AND a.id < b.id
		 AND a.status = 'active'
		 AND b.status = 'active'
		 AND a.entry_at < b.exit_at
		 AND a.exit_at > b.entry_at
	`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
