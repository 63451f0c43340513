package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/isati/wei-api/internal/api"
	"github.com/isati/wei-api/internal/auth"
	"github.com/isati/wei-api/internal/challenge"
	"github.com/isati/wei-api/internal/event"
	"github.com/isati/wei-api/internal/game"
	"github.com/isati/wei-api/internal/leaderboard"
	"github.com/isati/wei-api/internal/settings"
	"github.com/isati/wei-api/internal/store/postgres"
	"github.com/isati/wei-api/internal/team"
	"github.com/isati/wei-api/internal/telemetry"
	"github.com/isati/wei-api/internal/user"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Game struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			leaderboard redis.UniversalClient
		}

		postgres struct {
			game *pgxpool.Pool
		}

		store *postgres.Store
	}

	service struct {
		auth        *auth.Service
		users       *user.Service
		teams       *team.Service
		challenges  *challenge.Service
		game        *game.Service
		settings    *settings.Service
		leaderboard *leaderboard.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	s.infra.store = postgres.NewStore(s.infra.postgres.game)
	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Leaderboard.Addrs,
		Password: s.c.Redis.Leaderboard.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}

	s.infra.redis.leaderboard = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := s.c.Postgres.Game
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("game: %w", err)
	}

	s.infra.postgres.game = db
	return nil
}

func (s *Server) initService() {
	st := s.infra.store

	s.service.auth = auth.NewService(auth.Config{
		Users:    st.Users,
		EventBus: s.eb,
	})

	s.service.users = user.NewService(user.Config{
		EventBus: s.eb,
		Users:    st.Users,
		Blobs:    st.Blobs,
	})

	s.service.teams = team.NewService(team.Config{
		EventBus: s.eb,
		Users:    st.Users,
		Teams:    st.Teams,
		Blobs:    st.Blobs,
	})

	s.service.challenges = challenge.NewService(challenge.Config{
		Challenges: st.Challenges,
		Blobs:      st.Blobs,
	})

	s.service.game = game.NewService(game.Config{
		EventBus:   s.eb,
		Users:      st.Users,
		Teams:      st.Teams,
		Challenges: st.Challenges,
		Blobs:      st.Blobs,
		Tx:         st,
	})

	s.service.settings = settings.NewService(settings.Config{
		Settings: st.Settings,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Redis:    s.infra.redis.leaderboard,
		Prefix:   s.c.Redis.Leaderboard.Prefix,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.HTTPLogger())

	api.New(api.Config{
		Engine:      e,
		Auth:        s.service.auth,
		Game:        s.service.game,
		Users:       s.service.users,
		Teams:       s.service.teams,
		Challenges:  s.service.challenges,
		Settings:    s.service.settings,
		Leaderboard: s.service.leaderboard,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	s.infra.postgres.game.Close()
	if err := s.infra.redis.leaderboard.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
