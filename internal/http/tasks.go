package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookbuddy/internal/scheduler"
	"github.com/mrlokans/bookbuddy/internal/tasks"
)

// TasksController handles background job endpoints.
type TasksController struct {
	client     *tasks.Client
	backups    *scheduler.BackupScheduler
	backupDir  string
	backupKeep int
}

// NewTasksController creates a new TasksController. client and backups may be nil.
func NewTasksController(client *tasks.Client, backups *scheduler.BackupScheduler, backupDir string, backupKeep int) *TasksController {
	return &TasksController{
		client:     client,
		backups:    backups,
		backupDir:  backupDir,
		backupKeep: backupKeep,
	}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "rerank",
			Description: "Renumber the reading queue 1..n",
			Queue:       tasks.NormalizeRankingsTask{}.Config().Name,
		},
		{
			Type:        "backup",
			Description: "Write a CSV backup of every book",
			Queue:       tasks.ExportBackupTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if tc.client == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue disabled")
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunRerank handles POST /api/admin/rerank
func (tc *TasksController) RunRerank(c *gin.Context) {
	tc.enqueue(c, "rerank", tasks.NormalizeRankingsTask{})
}

// RunBackup handles POST /api/admin/backup
func (tc *TasksController) RunBackup(c *gin.Context) {
	if tc.backupDir == "" {
		respondBadRequest(c, "backup directory not configured")
		return
	}
	tc.enqueue(c, "backup", tasks.ExportBackupTask{
		Dir:    tc.backupDir,
		Prefix: scheduler.BackupPrefix,
		Keep:   tc.backupKeep,
	})
}

// BackupStatus handles GET /api/admin/backup/status
func (tc *TasksController) BackupStatus(c *gin.Context) {
	if tc.backups == nil {
		respondError(c, http.StatusServiceUnavailable, "backups disabled")
		return
	}
	c.JSON(http.StatusOK, tc.backups.Status())
}

func (tc *TasksController) enqueue(c *gin.Context, taskType string, task backlite.Task) {
	if tc.client == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue disabled")
		return
	}

	id, err := tc.client.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, fmt.Sprintf("enqueue %s", taskType))
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
