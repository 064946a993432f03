package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"geo-elevate/internal/app"
	"geo-elevate/internal/domain"
	"geo-elevate/internal/game"
	"geo-elevate/internal/infra/memory"
	pgloader "geo-elevate/internal/infra/postgres"
	pgmigrations "geo-elevate/internal/infra/postgres/migrations"
	infraredis "geo-elevate/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSpeedGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCountryLoader(pool)
	countries, err := loader.FetchCountries(ctx)
	if err != nil {
		t.Fatalf("fetch countries: %v", err)
	}
	if len(countries) != len(memory.BundledCountries()) {
		t.Fatalf("expected seeded countries, got %d", len(countries))
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	kv := infraredis.NewKVStore(redisClient)
	catalog := app.NewCatalogService(loader, kv, nil, time.Hour)
	first, err := catalog.Load(ctx)
	if err != nil || first.Offline || first.FromCache {
		t.Fatalf("expected fresh catalog from postgres, got %+v err=%v", first, err)
	}
	second, err := catalog.Load(ctx)
	if err != nil || !second.FromCache {
		t.Fatalf("expected cached catalog in redis, got %+v err=%v", second, err)
	}

	scores := app.NewScoreStore(kv, nil, nil)
	cfg := game.Config{Duration: time.Minute, TickInterval: time.Second, SpeedQuestions: 3, AnswerDelay: time.Millisecond}
	service := app.NewGameService(infraredis.NewGameStore(redisClient, time.Minute), catalog, scores, cfg)

	runner, loaded, err := service.Start(ctx, domain.ModeSpeed)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	type played struct {
		result app.GameResult
		err    error
	}
	done := make(chan played, 1)
	go func() {
		result, err := service.Play(ctx, runner, loaded)
		done <- played{result, err}
	}()
	for ev := range runner.Events() {
		if ev.Type == game.EventQuestion {
			if err := service.Answer(ctx, runner.Session().ID(), ev.Question.ID, ev.Question.Correct); err != nil {
				t.Fatalf("answer: %v", err)
			}
		}
	}
	out := <-done
	if out.err != nil {
		t.Fatalf("play: %v", out.err)
	}
	if !out.result.NewHighScore || out.result.Summary.TotalQuestions != 3 {
		t.Fatalf("unexpected result %+v", out.result)
	}

	best, err := app.NewScoreStore(kv, nil, nil).HighScore(ctx, domain.ModeSpeed)
	if err != nil {
		t.Fatalf("high score: %v", err)
	}
	if best != out.result.Summary.Score {
		t.Fatalf("expected persisted best %d, got %d", out.result.Summary.Score, best)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "geo", "POSTGRES_PASSWORD": "geopass", "POSTGRES_DB": "geodb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://geo:geopass@%s:%s/geodb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !group.IsZero() {
		t.Fatalf("expected migrations to be applied once, got %s", group)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
