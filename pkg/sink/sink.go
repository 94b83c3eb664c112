// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink defines the outbound record stream of a run and the sinks that
// consume it.
package sink

import (
	stderrors "errors"
	"time"

	"github.com/jllopis/autoagents/pkg/core"
	"github.com/jllopis/autoagents/pkg/errors"
)

// ActionRunTask is the envelope action for transcript records.
const ActionRunTask = "RunTask"

// TimestampLayout is the record timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// File is the payload attached for FILE instructions.
type File struct {
	FileType string `json:"file_type"`
	FileData string `json:"file_data"`
}

// TaskMessage is one transcript record.
type TaskMessage struct {
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	File      *File  `json:"file"`
}

// Data wraps a record with its task id.
type Data struct {
	TaskID      string      `json:"task_id"`
	TaskMessage TaskMessage `json:"task_message"`
}

// Envelope is the unit pushed to sinks.
type Envelope struct {
	Action string `json:"action"`
	Data   Data   `json:"data"`
}

// NewEnvelope formats msg as a RunTask record.
func NewEnvelope(taskID string, msg core.Message, file *File) Envelope {
	ts := msg.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return Envelope{
		Action: ActionRunTask,
		Data: Data{
			TaskID: taskID,
			TaskMessage: TaskMessage{
				Timestamp: ts.Local().Format(TimestampLayout),
				Role:      msg.Role,
				Content:   msg.Content,
				File:      file,
			},
		},
	}
}

// Sink accepts records without blocking. Implementations that cannot accept a
// record return an error with code SINK_FULL.
type Sink interface {
	Enqueue(env Envelope) error
}

// Named is implemented by sinks that want a label on metrics.
type Named interface {
	Name() string
}

// NameOf returns s's label, or "sink".
func NameOf(s Sink) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return "sink"
}

// Multi fans a record out to every sink. All sinks are attempted; their
// errors are joined.
type Multi []Sink

func (m Multi) Enqueue(env Envelope) error {
	var errs []error
	for _, s := range m {
		if err := s.Enqueue(env); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m Multi) Name() string { return "multi" }

// ErrFull builds the SINK_FULL error for sink name.
func ErrFull(name string) error {
	return errors.New(errors.CodeSinkFull, "sink is full, record dropped", nil).
		WithContext("sink", name).
		WithRecoverable(true)
}
