package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyJobType      KeyContext = "job_type"
	keyTargetID     KeyContext = "target_id"
	keyJobStartTime KeyContext = "job_start_time"
)

// JobMetadata holds metadata for one workflow run
type JobMetadata struct {
	JobID     uuid.UUID
	JobType   string
	TargetID  uuid.UUID
	StartTime time.Time
}

// JobBegin derives a run context carrying a fresh job id and a deadline.
// A non-positive timeout leaves the parent deadline untouched.
func JobBegin(parentCtx context.Context, jobType string, targetID uuid.UUID, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}

	ctx = context.WithValue(ctx, keyJobID, uuid.New())
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyTargetID, targetID)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetJobType extracts job type from context
func GetJobType(ctx context.Context) (string, bool) {
	jobType, ok := ctx.Value(keyJobType).(string)
	return jobType, ok
}

// GetTargetID extracts the id of the record the job works on
func GetTargetID(ctx context.Context) (uuid.UUID, bool) {
	targetID, ok := ctx.Value(keyTargetID).(uuid.UUID)
	return targetID, ok
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	jobType, _ := GetJobType(ctx)
	targetID, _ := GetTargetID(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		JobID:     jobID,
		JobType:   jobType,
		TargetID:  targetID,
		StartTime: startTime,
	}
}

// Elapsed returns the time since the job started, 0 outside a job
func Elapsed(ctx context.Context) time.Duration {
	start, ok := GetJobStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// LogFields renders the job metadata as zap fields
func LogFields(ctx context.Context) []zap.Field {
	meta := GetJobMetadata(ctx)
	if meta.JobID == uuid.Nil {
		return nil
	}
	return []zap.Field{
		zap.String("job_id", meta.JobID.String()),
		zap.String("job_type", meta.JobType),
		zap.String("target_id", meta.TargetID.String()),
	}
}
