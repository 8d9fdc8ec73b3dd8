package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookbuddy/internal/database"
	"github.com/mrlokans/bookbuddy/internal/tasks"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports storage reachability, the reading queue size
// and whether background workers are running.
type HealthController struct {
	db      *database.Database
	tasks   *tasks.Client
	version string
}

func NewHealthController(db *database.Database, taskClient *tasks.Client, version string) *HealthController {
	return &HealthController{db: db, tasks: taskClient, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{
		"database":   "not configured",
		"task_queue": "disabled",
	}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
			if n, err := h.db.Books().GetBooksInQueueCount(c.Request.Context()); err == nil {
				checks["books_in_queue"] = strconv.FormatInt(n, 10)
			}
		}
	}

	if h.tasks != nil {
		checks["task_queue"] = "stopped"
		if h.tasks.Running() {
			checks["task_queue"] = "running"
		}
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
