// Package testserver starts a full store over HTTP for tests: in-memory
// SQLite, migrations applied, one API key registered.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"casegraph/internal/sqlitestore"
	"casegraph/internal/transport"
)

type TestServer struct {
	Server         *httptest.Server
	Store          *sqlitestore.Store
	Token          string
	OrganizationID string
}

func New(t *testing.T, token, organizationID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlitestore.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	store := sqlitestore.NewStore(db)
	server := httptest.NewServer(transport.NewServer(store, transport.AuthMiddleware(store)))

	ts := &TestServer{
		Server:         server,
		Store:          store,
		Token:          token,
		OrganizationID: organizationID,
	}

	require.NoError(t, store.AddAPIKey(context.Background(), token, organizationID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}
