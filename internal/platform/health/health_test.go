package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// unreachableDB opens a lazy GORM handle pointing at a closed port, so the
// readiness ping fails without needing a database.
func unreachableDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		postgres.Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable"),
		&gorm.Config{DisableAutomaticPing: true},
	)
	require.NoError(t, err)
	return db
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestLive_AlwaysOK(t *testing.T) {
	h := NewHandler(unreachableDB(t), nil, "service-booking")

	w := serve(h, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "service-booking")
}

func TestReady_DatabaseUnreachable(t *testing.T) {
	h := NewHandler(unreachableDB(t), nil, "service-booking")

	w := serve(h, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database unreachable")
}

func TestReady_CacheUnreachable(t *testing.T) {
	// Postgres is reported first, so an unreachable cache alone cannot be
	// exercised without a live database. Covered by the integration suite;
	// here we only pin the ordering: database failure wins.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	h := NewHandler(unreachableDB(t), rdb, "service-booking")

	w := serve(h, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database unreachable")
}
