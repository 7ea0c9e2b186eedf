// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container wraps a started testcontainers instance and its mapped port.
type Container struct {
	container testcontainers.Container
	host      string
	port      string
}

// sharedContainer starts one container per process on first use.
type sharedContainer struct {
	once sync.Once
	c    *Container
	err  error
}

func (s *sharedContainer) start(t *testing.T, name string, req testcontainers.ContainerRequest, port string) *Container {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s container test in short mode", name)
	}

	s.once.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			s.err = fmt.Errorf("start %s container: %w", name, err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s host: %w", name, err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, port)
		if err != nil {
			container.Terminate(ctx)
			s.err = fmt.Errorf("get %s port: %w", name, err)
			return
		}

		s.c = &Container{container: container, host: host, port: mappedPort.Port()}
	})

	if s.err != nil {
		t.Fatalf("%s container failed: %v", name, s.err)
	}
	return s.c
}

// Host returns the container host.
func (c *Container) Host() string {
	return c.host
}

// Port returns the mapped port.
func (c *Container) Port() string {
	return c.port
}

// Cleanup terminates the container. Call from TestMain if needed.
func (c *Container) Cleanup() {
	if c != nil && c.container != nil {
		c.container.Terminate(context.Background())
	}
}

var (
	surrealShared  sharedContainer
	postgresShared sharedContainer
	redisShared    sharedContainer
)

// SurrealDBContainer is a running SurrealDB server.
type SurrealDBContainer struct{ *Container }

// StartSurrealDB starts a shared SurrealDB container for the test run.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	c := surrealShared.start(t, "SurrealDB", testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v3.0.0",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", "root", "--pass", "root"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	}, "8000/tcp")
	return &SurrealDBContainer{c}
}

// Address returns the WebSocket RPC address for SurrealDB.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}

// PostgresContainer is a running PostgreSQL server with contrib extensions available.
type PostgresContainer struct{ *Container }

// StartPostgres starts a shared PostgreSQL container for the test run.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	c := postgresShared.start(t, "PostgreSQL", testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "nsechat",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	}, "5432/tcp")
	return &PostgresContainer{c}
}

// DSN returns a lib/pq connection string for the container.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/nsechat?sslmode=disable", c.host, c.port)
}

// RedisContainer is a running Redis server.
type RedisContainer struct{ *Container }

// StartRedis starts a shared Redis container for the test run.
func StartRedis(t *testing.T) *RedisContainer {
	t.Helper()
	c := redisShared.start(t, "Redis", testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithDeadline(60 * time.Second),
	}, "6379/tcp")
	return &RedisContainer{c}
}

// URL returns a go-redis connection URL for the container.
func (c *RedisContainer) URL() string {
	return fmt.Sprintf("redis://%s:%s/0", c.host, c.port)
}
