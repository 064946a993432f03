package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"geo-elevate/internal/app"
	"geo-elevate/internal/config"
	"geo-elevate/internal/game"
	"geo-elevate/internal/infra/api"
	"geo-elevate/internal/infra/memory"
	pgloader "geo-elevate/internal/infra/postgres"
	redisstore "geo-elevate/internal/infra/redis"
	"geo-elevate/internal/infra/restcountries"
	"geo-elevate/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// deps is the wired application shared by all commands.
type deps struct {
	cfg     config.Config
	kv      app.KVStore
	api     *api.Client
	auth    *app.AuthSession
	scores  *app.ScoreStore
	catalog *app.CatalogService
	games   app.GameRepository
	gameCfg game.Config

	closers []func()
}

func loadDeps(ctx context.Context, configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, gameCfg: gameConfig(cfg)}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
	}

	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		store, err := sqlite.NewKVStore(cfg.Storage.Path)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.kv = store
		d.closers = append(d.closers, func() { _ = store.Close() })
	case config.StorageRedis:
		if redisClient == nil {
			d.Close()
			return nil, fmt.Errorf("storage driver redis needs redis.addr")
		}
		d.kv = redisstore.NewKVStore(redisClient)
	case config.StorageMemory:
		d.kv = memory.NewKVStore()
	default:
		d.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if redisClient != nil {
		d.games = redisstore.NewGameStore(redisClient, 2*time.Hour)
	} else {
		d.games = memory.NewGameStore()
	}

	source, err := d.countrySource(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.catalog = app.NewCatalogService(source, d.kv, memory.BundledCountries(), config.TTLDuration(cfg.Countries.TTL, app.DefaultCatalogTTL))

	httpClient := &http.Client{Timeout: config.TTLDuration(cfg.API.Timeout, 10*time.Second)}
	d.api = api.NewClient(cfg.API.BaseURL, httpClient)
	d.auth = app.NewAuthSession(d.api, d.kv)
	d.api.Token = d.auth.Token
	d.api.OnUnauthorized = d.auth.Invalidate
	if err := d.auth.Hydrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	d.scores = app.NewScoreStore(d.kv, d.api, d.auth)
	return d, nil
}

func (d *deps) countrySource(ctx context.Context) (app.CountrySource, error) {
	switch d.cfg.Countries.Source {
	case config.SourceRESTCountries:
		return restcountries.NewClient(d.cfg.Countries.URL, &http.Client{Timeout: 15 * time.Second}), nil
	case config.SourcePostgres:
		if d.cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("countries source postgres needs postgres.url")
		}
		pool, err := pgxpool.Connect(ctx, d.cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		return pgloader.NewCountryLoader(pool), nil
	case config.SourceBundled:
		return memory.NewStaticCountrySource(memory.BundledCountries()), nil
	}
	return nil, fmt.Errorf("unknown countries source %q", d.cfg.Countries.Source)
}

func (d *deps) gameService() *app.GameService {
	return app.NewGameService(d.games, d.catalog, d.scores, d.gameCfg)
}

// Close waits for background score submissions and releases connections.
func (d *deps) Close() {
	if d.scores != nil {
		d.scores.Wait()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func gameConfig(cfg config.Config) game.Config {
	def := game.DefaultConfig()
	gc := game.Config{
		Duration:       config.TTLDuration(cfg.Game.Duration, def.Duration),
		TickInterval:   config.TTLDuration(cfg.Game.TickInterval, def.TickInterval),
		SpeedQuestions: cfg.Game.SpeedQuestions,
		AnswerDelay:    config.TTLDuration(cfg.Game.AnswerDelay, def.AnswerDelay),
	}
	if gc.SpeedQuestions <= 0 {
		gc.SpeedQuestions = def.SpeedQuestions
	}
	return gc
}

func logAdvisory(catalog app.Catalog) {
	if catalog.Offline {
		log.Printf("%s", catalog.Advisory)
	}
}
