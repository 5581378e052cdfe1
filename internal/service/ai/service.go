package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edforge/lms-api/internal/model"
	apperrors "github.com/edforge/lms-api/pkg/errors"
	"github.com/edforge/lms-api/pkg/messaging"
)

// TopicAI is the broker topic generation jobs are queued on.
const TopicAI = "ai.generation"

// GenerateRequest asks for draft lesson content or quiz questions for a
// subchapter.
type GenerateRequest struct {
	SubchapterID string `json:"subchapter_id" binding:"required,uuid"`
	Kind         string `json:"kind" binding:"required,oneof=lesson quiz"`
	Prompt       string `json:"prompt" binding:"omitempty,max=2000"`
	QuestionNum  int    `json:"question_num" binding:"omitempty,min=1,max=20"`
}

// Job is the queued unit of work the worker consumes.
type Job struct {
	ID           uuid.UUID `json:"id"`
	SubchapterID uuid.UUID `json:"subchapter_id"`
	Kind         string    `json:"kind"`
	Prompt       string    `json:"prompt"`
	QuestionNum  int       `json:"question_num"`
	RequestedBy  uuid.UUID `json:"requested_by"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Generator produces content for a job. Provider integration lives
// behind this interface; the API only queues work.
type Generator interface {
	Generate(ctx context.Context, job *Job) (string, error)
}

// Service queues generation jobs on the broker. The heavy lifting runs
// in cmd/worker so API latency stays flat.
type Service struct {
	broker messaging.Broker
}

func NewService(broker messaging.Broker) *Service {
	return &Service{broker: broker}
}

// Enqueue validates the request and publishes a job. The returned job ID
// lets clients poll for the result.
func (s *Service) Enqueue(ctx context.Context, userID uuid.UUID, req *GenerateRequest) (*Job, error) {
	subchapterID, err := uuid.Parse(req.SubchapterID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid subchapter_id", err)
	}

	job := &Job{
		ID:           uuid.New(),
		SubchapterID: subchapterID,
		Kind:         req.Kind,
		Prompt:       req.Prompt,
		QuestionNum:  req.QuestionNum,
		RequestedBy:  userID,
		RequestedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}

	msg := &messaging.Message{
		ID:      job.ID.String(),
		Type:    model.EventAIGenerated,
		Payload: payload,
	}
	if err := s.broker.Publish(ctx, TopicAI, msg); err != nil {
		return nil, fmt.Errorf("enqueue generation job: %w", err)
	}

	return job, nil
}

// DecodeJob parses a queued job back out of a broker message.
func DecodeJob(msg *messaging.Message) (*Job, error) {
	var job Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode generation job: %w", err)
	}
	return &job, nil
}
