package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-auth-server"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, auth.EnsureSchema(context.Background(), bunDB))

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return bunDB
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return mr, rdb
}

type testStack struct {
	db       *bun.DB
	users    auth.Users
	sessions auth.Sessions
	tokens   *auth.TokenServiceImpl
	guard    *auth.TokenGuard
	app      *fiber.App
}

func newTestStack(t *testing.T, ttl time.Duration) *testStack {
	t.Helper()

	db := setupTestDB(t)
	_, rdb := setupTestRedis(t)

	users := auth.NewUsersRepository(db)
	sessions := auth.NewSessionsRepository(db)
	tokens := auth.NewTokenService([]byte(testSigningKey), ttl, "go-auth-server", nil)
	auther := auth.NewAuthenticator(users)
	guard := auth.NewTokenGuard(tokens, sessions)
	limiter := auth.NewFixedWindowLimiter(rdb, 5, 15*time.Minute)

	controller := auth.NewAuthController(
		auth.WithAuthenticator(auther),
		auth.WithTokenService(tokens),
		auth.WithSessions(sessions),
		auth.WithUsers(users),
		auth.WithRateLimiter(limiter),
	)
	controller.Guard = guard

	app := fiber.New()
	auth.RegisterAuthRoutes(app, controller)

	return &testStack{
		db:       db,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		guard:    guard,
		app:      app,
	}
}

func registerTestUser(t *testing.T, users auth.Users, email string) *auth.User {
	t.Helper()

	auther := auth.NewAuthenticator(users)
	user, err := auther.Register(context.Background(), "Alice Doe", email, "Passw0rd1")
	require.NoError(t, err)

	return user
}
