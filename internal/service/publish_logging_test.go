package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"insightslm-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

type failingPublisher struct {
	err error
}

func (p *failingPublisher) Publish(ctx context.Context, payload []byte) error {
	return p.err
}

type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Info(module, message string, details map[string]interface{})  {}
func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.warns = append(l.warns, module+": "+message)
}
func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {}
func (l *recordingLogger) Sync() error                                                  { return nil }

func sampleChange() events.RowChange {
	return events.RowChange{
		Table:      events.TableNotebooks,
		Change:     events.ChangeUpdate,
		UserID:     "u-1",
		NotebookID: "nb-1",
		OccurredAt: time.Now(),
	}
}

func TestNotebookServiceLogsFailedRowChangePublish(t *testing.T) {
	log := &recordingLogger{}
	svc := &notebookService{
		publisherService: &failingPublisher{err: errors.New("bus closed")},
		logger:           log,
	}

	svc.publishRowChange(context.Background(), sampleChange())

	assert.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "NotebookService")
}

func TestFunctionsServiceLogsFailedRowChangePublish(t *testing.T) {
	log := &recordingLogger{}
	svc := &functionsService{
		publisherService: &failingPublisher{err: errors.New("bus closed")},
		logger:           log,
	}

	svc.publishRowChange(context.Background(), sampleChange())

	assert.Len(t, log.warns, 1)
	assert.Contains(t, log.warns[0], "FunctionsService")
}
