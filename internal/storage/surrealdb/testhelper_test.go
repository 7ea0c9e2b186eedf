package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/nsechat/internal/common"
	tcommon "github.com/bobmcallan/nsechat/tests/common"
)

// testStore connects to the shared SurrealDB container with a unique
// database per test.
func testStore(t *testing.T) *MetadataStore {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)

	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := common.SurrealDBConfig{
		Address:   sc.Address(),
		Username:  "root",
		Password:  "root",
		Namespace: "nsechat_test",
		Database:  fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000),
	}

	db, err := Connect(context.Background(), testLogger(), cfg)
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	store := NewMetadataStore(db, testLogger())
	t.Cleanup(func() { store.Close() })
	return store
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
