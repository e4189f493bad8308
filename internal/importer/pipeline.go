package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/domain"
)

// Upload is one statement file as received from the caller.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// State is shared by every step of one import.
type State struct {
	UserID string
	Upload Upload
	Kind   csvimport.FileKind
	Run    *domain.ImportRun

	Data       []byte
	ArchiveURI string
	Rows       []csvimport.Row
	Result     csvimport.Result

	Stored   []*domain.Record
	Failures []Failure
}

// Step is a single stage of the import pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes steps in order and stops at the first error.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("import step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}
