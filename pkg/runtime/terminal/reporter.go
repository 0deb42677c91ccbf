package terminal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
)

// Reporter writes results as indented JSON documents.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

// Status ignores verbose; resources are always included.
func (c *Reporter) Status(status domain.BudgetStatus, _ bool) error {
	return c.encode(status)
}

func (c *Reporter) Evaluation(result *domain.EvaluationResult) error {
	return c.encode(result)
}

func (c *Reporter) Outcome(outcome domain.RemediationOutcome) error {
	return c.encode(outcome)
}

func (c *Reporter) Profiles(profiles []domain.ConfigProfile) error {
	if profiles == nil {
		profiles = []domain.ConfigProfile{}
	}
	return c.encode(profiles)
}

func (c *Reporter) encode(v any) error {
	enc := json.NewEncoder(c.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
