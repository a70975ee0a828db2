package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mail-routing-engine/internal/db"
	"mail-routing-engine/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// sqlite serializes writers; a single connection avoids lock errors
	// under the concurrency tests.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestPutGetRoundTrip(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	created, err := s.Put(ConfigParams{
		Address: "support@example.com",
		Action:  model.ActionForward,
		Targets: []string{"a@example.org", "b@example.org"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get("support@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "support@example.com", got.Address)
	assert.Equal(t, model.ActionForward, got.Action)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, got.Targets)
}

func TestGetIsIdempotent(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	_, err := s.Put(ConfigParams{
		Address:    "api@example.com",
		Action:     model.ActionWebhook,
		WebhookURL: "https://hooks.example.com/inbound",
	})
	require.NoError(t, err)

	first, err := s.Get("api@example.com")
	require.NoError(t, err)
	second, err := s.Get("api@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPutOverwriteAssignsFreshIdentity(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	first, err := s.Put(ConfigParams{
		Address: "archive@example.com",
		Action:  model.ActionStore,
	})
	require.NoError(t, err)

	second, err := s.Put(ConfigParams{
		Address: "archive@example.com",
		Action:  model.ActionForward,
		Targets: []string{"ops@example.org"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Exactly one config per address survives.
	got, err := s.Get("archive@example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, model.ActionForward, got.Action)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPutValidation(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	cases := []struct {
		name   string
		params ConfigParams
		field  string
	}{
		{
			name:   "malformed address",
			params: ConfigParams{Address: "not-an-address", Action: model.ActionStore},
			field:  "address",
		},
		{
			name:   "unknown action",
			params: ConfigParams{Address: "a@example.com", Action: model.Action("bounce")},
			field:  "action",
		},
		{
			name:   "forward without targets",
			params: ConfigParams{Address: "a@example.com", Action: model.ActionForward},
			field:  "targets",
		},
		{
			name: "forward with malformed target",
			params: ConfigParams{
				Address: "a@example.com",
				Action:  model.ActionForward,
				Targets: []string{"ok@example.org", "bogus"},
			},
			field: "targets",
		},
		{
			name: "webhook with relative URL",
			params: ConfigParams{
				Address:    "a@example.com",
				Action:     model.ActionWebhook,
				WebhookURL: "/hooks/inbound",
			},
			field: "webhook_url",
		},
		{
			name: "webhook with unsupported scheme",
			params: ConfigParams{
				Address:    "a@example.com",
				Action:     model.ActionWebhook,
				WebhookURL: "ftp://hooks.example.com/inbound",
			},
			field: "webhook_url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Put(tc.params)
			require.Error(t, err)
			verr, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	// Nothing invalid was persisted.
	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetNotFound(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	_, err := s.Get("ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	_, err := s.Put(ConfigParams{Address: "archive@example.com", Action: model.ActionStore})
	require.NoError(t, err)

	require.NoError(t, s.Delete("archive@example.com"))
	_, err = s.Get("archive@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again, or deleting an address that never existed, is fine.
	require.NoError(t, s.Delete("archive@example.com"))
	require.NoError(t, s.Delete("never@example.com"))
}

func TestList(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	for _, addr := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		_, err := s.Put(ConfigParams{Address: addr, Action: model.ActionStore})
		require.NoError(t, err)
	}

	configs, err := s.List()
	require.NoError(t, err)
	require.Len(t, configs, 3)

	addresses := make([]string, 0, len(configs))
	for _, cfg := range configs {
		addresses = append(addresses, cfg.Address)
	}
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, addresses)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	s := NewConfigStore(newTestDB(t))

	_, err := s.Put(ConfigParams{
		Address: "support@example.com",
		Action:  model.ActionForward,
		Targets: []string{"a@example.org"},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := s.Get("support@example.com")
			if err != nil {
				errs <- err
				return
			}
			// A reader never observes a half-written config.
			if cfg.Action == model.ActionForward && len(cfg.Targets) == 0 {
				errs <- fmt.Errorf("torn config: forward with no targets")
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Put(ConfigParams{
				Address: "support@example.com",
				Action:  model.ActionForward,
				Targets: []string{"a@example.org", "b@example.org"},
			}); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent access error: %v", err)
	}
}
