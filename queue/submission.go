package queue

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// Submittable is implemented by recorded command buffers that can be added to a Submission
type Submittable interface {
	// Capability returns the kind the buffer was recorded under
	Capability() Kind
}

// Submission accumulates command buffers recorded under possibly different capabilities. Its kind
// starts at KindTransfer and is joined with each appended buffer's capability, so it is always the
// weakest kind that supports every buffer in the batch.
type Submission struct {
	kind    Kind
	buffers []Submittable
}

// NewSubmission creates an empty submission with KindTransfer capability
func NewSubmission() *Submission {
	return &Submission{kind: KindTransfer}
}

// Kind returns the capability a queue needs to execute this submission
func (s *Submission) Kind() Kind { return s.kind }

// Len returns the number of buffers in the submission
func (s *Submission) Len() int { return len(s.buffers) }

// Buffers returns the buffers in submission order
func (s *Submission) Buffers() []Submittable {
	return s.buffers
}

// Append adds buffers to the end of the submission, raising its capability as needed
func (s *Submission) Append(buffers ...Submittable) *Submission {
	for _, buffer := range buffers {
		s.kind = Upper(s.kind, buffer.Capability())
		s.buffers = append(s.buffers, buffer)
	}
	return s
}

// Promote raises the submission's capability to kind. A submission can only be promoted to a kind
// that supports its current kind.
func (s *Submission) Promote(kind Kind) error {
	err := Check("submission promotion", kind, s.kind)
	if err != nil {
		return err
	}

	s.kind = kind
	return nil
}

// Reset empties the submission and returns it to KindTransfer
func (s *Submission) Reset() {
	s.kind = KindTransfer
	clear(s.buffers)
	s.buffers = s.buffers[:0]
}

// Executor hands a batch of command buffers to the device. It is implemented by drivers.
type Executor interface {
	Execute(kind Kind, buffers []Submittable) error
}

// Queue is a device queue with a fixed capability
type Queue struct {
	logger   *slog.Logger
	kind     Kind
	executor Executor
}

// NewQueue creates a queue that executes submissions of kind or weaker through executor
func NewQueue(logger *slog.Logger, kind Kind, executor Executor) *Queue {
	return &Queue{
		logger:   logger,
		kind:     kind,
		executor: executor,
	}
}

// Kind returns the queue's capability
func (q *Queue) Kind() Kind { return q.kind }

// Submit executes the submission's buffers. Submissions the queue does not support are rejected
// with a CapabilityError and nothing is executed.
func (q *Queue) Submit(submission *Submission) error {
	err := Check("queue submission", q.kind, submission.Kind())
	if err != nil {
		return err
	}

	if submission.Len() == 0 {
		return nil
	}

	q.logger.Debug("submitting command buffers",
		slog.String("Queue", q.kind.String()),
		slog.String("Submission", submission.Kind().String()),
		slog.Int("BufferCount", submission.Len()),
	)

	err = q.executor.Execute(submission.Kind(), submission.Buffers())
	if err != nil {
		return errors.Wrapf(err, "failed to execute %d command buffers on %s queue", submission.Len(), q.kind)
	}

	return nil
}
